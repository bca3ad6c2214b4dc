package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/service/matching"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type DinnerStore interface {
	CreateParticipant(ctx context.Context, p *domain.Participant) (*domain.Participant, error)
	ListParticipants(ctx context.Context) ([]*domain.Participant, error)
	DeleteParticipant(ctx context.Context, id string) error
	SaveRound(ctx context.Context, round *domain.DinnerRound) error
	ListRounds(ctx context.Context, limit int) ([]*domain.DinnerRound, error)
	PairHistory(ctx context.Context) (map[[2]string]int, error)
}

// DinnerHandler runs the Mesa Abierta sign-up list and matching rounds.
type DinnerHandler struct {
	store   DinnerStore
	matcher *matching.Matcher
	logger  *zap.Logger
}

func NewDinnerHandler(store DinnerStore, matcher *matching.Matcher, logger *zap.Logger) *DinnerHandler {
	return &DinnerHandler{store: store, matcher: matcher, logger: logger}
}

func (h *DinnerHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/dinner/participants", h.CreateParticipant).Methods("POST")
	r.HandleFunc("/api/dinner/participants", h.ListParticipants).Methods("GET")
	r.HandleFunc("/api/dinner/participants/{id}", h.DeleteParticipant).Methods("DELETE")
	r.HandleFunc("/api/dinner/rounds", h.CreateRound).Methods("POST")
	r.HandleFunc("/api/dinner/rounds", h.ListRounds).Methods("GET")
}

// CreateParticipant signs someone up for the next dinner round.
// POST /api/dinner/participants
func (h *DinnerHandler) CreateParticipant(w http.ResponseWriter, r *http.Request) {
	var participant domain.Participant
	if !decodeJSON(w, r, h.logger, &participant) {
		return
	}
	if participant.Name == "" {
		writeValidationError(w, h.logger, "name is required", "name", participant.Name)
		return
	}
	if participant.IsHost && participant.HostCapacity <= 0 {
		writeValidationError(w, h.logger, "hosts must declare a positive capacity", "host_capacity", participant.HostCapacity)
		return
	}

	created, err := h.store.CreateParticipant(r.Context(), &participant)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *DinnerHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.store.ListParticipants(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, participants)
}

func (h *DinnerHandler) DeleteParticipant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.DeleteParticipant(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type createRoundRequest struct {
	Label string `json:"label"`
	Seed  *int64 `json:"seed,omitempty"`
}

// CreateRound matches the current sign-ups into dinner groups and persists
// the result. Without an explicit seed the current time seeds the shuffle.
// POST /api/dinner/rounds
func (h *DinnerHandler) CreateRound(w http.ResponseWriter, r *http.Request) {
	var req createRoundRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.Label == "" {
		writeValidationError(w, h.logger, "label is required", "label", req.Label)
		return
	}

	participants, err := h.store.ListParticipants(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	history, err := h.store.PairHistory(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	round, err := h.matcher.Match(participants, history, req.Label, seed)
	if err != nil {
		var capErr *matching.InsufficientCapacityError
		if errors.As(err, &capErr) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: capErr.Error()})
			return
		}
		writeValidationError(w, h.logger, err.Error(), "participants", len(participants))
		return
	}

	if err := h.store.SaveRound(r.Context(), round); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, round)
}

// ListRounds returns past rounds, most recent first.
// GET /api/dinner/rounds?limit=N
func (h *DinnerHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)

	rounds, err := h.store.ListRounds(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, rounds)
}
