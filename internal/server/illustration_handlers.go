package server

import (
	"encoding/base64"
	"net/http"

	"github.com/casaiglesia/casa-server/internal/service/ai"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// IllustrationHandler exposes AI image and copy generation for event
// publicity. All routes answer 503 when no AI provider is configured.
type IllustrationHandler struct {
	illustrations *ai.IllustrationService
	logger        *zap.Logger
}

func NewIllustrationHandler(illustrations *ai.IllustrationService, logger *zap.Logger) *IllustrationHandler {
	return &IllustrationHandler{illustrations: illustrations, logger: logger}
}

func (h *IllustrationHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/illustrations", h.Generate).Methods("POST")
	r.HandleFunc("/api/illustrations/copy", h.GenerateCopy).Methods("POST")
	r.HandleFunc("/api/illustrations/event-types", h.EventTypes).Methods("GET")
}

type generateIllustrationRequest struct {
	EventType      string `json:"event_type"`
	CustomElements string `json:"custom_elements,omitempty"`
	Count          int    `json:"count,omitempty"`
}

type generateIllustrationResponse struct {
	Images []string `json:"images"`
	Prompt string   `json:"prompt"`
}

// Generate produces watercolor illustrations for an event type.
// POST /api/illustrations
func (h *IllustrationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.illustrations == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "image generation is not configured"})
		return
	}

	var req generateIllustrationRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.EventType == "" {
		writeValidationError(w, h.logger, "event_type is required", "event_type", req.EventType)
		return
	}

	result, err := h.illustrations.Generate(r.Context(), ai.IllustrationRequest{
		EventType:      req.EventType,
		CustomElements: req.CustomElements,
		NumberOfImages: req.Count,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := generateIllustrationResponse{
		Images: make([]string, 0, len(result.Images)),
		Prompt: result.Prompt,
	}
	for _, img := range result.Images {
		resp.Images = append(resp.Images, base64.StdEncoding.EncodeToString(img))
	}

	writeJSON(w, http.StatusOK, resp)
}

type generateCopyRequest struct {
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
	Details   string `json:"details,omitempty"`
}

// GenerateCopy produces Spanish promotional text for an event.
// POST /api/illustrations/copy
func (h *IllustrationHandler) GenerateCopy(w http.ResponseWriter, r *http.Request) {
	if h.illustrations == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "text generation is not configured"})
		return
	}

	var req generateCopyRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.EventName == "" {
		writeValidationError(w, h.logger, "event_name is required", "event_name", req.EventName)
		return
	}
	if req.EventType == "" {
		req.EventType = "generic"
	}

	copyText, err := h.illustrations.GenerateCopy(r.Context(), req.EventType, req.EventName, req.Details)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, copyText)
}

// EventTypes lists the event types with tailored illustration prompts.
// GET /api/illustrations/event-types
func (h *IllustrationHandler) EventTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"event_types": ai.EventTypes()})
}
