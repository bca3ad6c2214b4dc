package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/casaiglesia/casa-server/pkg/errors"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps an error to a status code and a JSON error body.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var (
		validationErr *apperrors.ValidationError
		notFoundErr   *apperrors.NotFoundError
		apiErr        *apperrors.APIError
		appErr        *apperrors.AppError
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		status = http.StatusNotFound
		message = "not found"
	case errors.As(err, &validationErr):
		status = validationErr.StatusCode
		message = validationErr.Message
	case errors.As(err, &notFoundErr):
		status = notFoundErr.StatusCode
		message = notFoundErr.Message
	case errors.As(err, &apiErr):
		status = apiErr.StatusCode
		message = apiErr.Message
	case errors.As(err, &appErr):
		status = appErr.StatusCode
		message = appErr.Message
	}

	if status >= 500 {
		logger.Error("Request failed", zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeValidationError(w http.ResponseWriter, logger *zap.Logger, message, field string, value any) {
	writeError(w, logger, apperrors.NewValidationError(message, field, value))
}

func writeNotFound(w http.ResponseWriter, logger *zap.Logger, resource, id string) {
	writeError(w, logger, apperrors.NewNotFoundError(resource, id))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeValidationError(w, logger, "invalid JSON body", "body", nil)
		return false
	}
	return true
}
