package server

import (
	"context"
	"net/http"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type VolunteerStore interface {
	Create(ctx context.Context, v *domain.Volunteer) (*domain.Volunteer, error)
	FindByID(ctx context.Context, id string) (*domain.Volunteer, error)
	List(ctx context.Context) ([]*domain.Volunteer, error)
	Delete(ctx context.Context, id string) error
	Assign(ctx context.Context, volunteerID, liturgyID, role string, serviceDate time.Time) (*domain.Assignment, error)
	Confirm(ctx context.Context, assignmentID string) error
	ListByLiturgy(ctx context.Context, liturgyID string) ([]*domain.Assignment, error)
}

type VolunteerHandler struct {
	store  VolunteerStore
	logger *zap.Logger
}

func NewVolunteerHandler(store VolunteerStore, logger *zap.Logger) *VolunteerHandler {
	return &VolunteerHandler{store: store, logger: logger}
}

func (h *VolunteerHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/volunteers", h.CreateVolunteer).Methods("POST")
	r.HandleFunc("/api/volunteers", h.ListVolunteers).Methods("GET")
	r.HandleFunc("/api/volunteers/{id}", h.DeleteVolunteer).Methods("DELETE")
	r.HandleFunc("/api/assignments", h.CreateAssignment).Methods("POST")
	r.HandleFunc("/api/assignments/{id}/confirm", h.ConfirmAssignment).Methods("POST")
	r.HandleFunc("/api/liturgies/{id}/assignments", h.ListAssignments).Methods("GET")
}

// CreateVolunteer registers a volunteer and their roles.
// POST /api/volunteers
func (h *VolunteerHandler) CreateVolunteer(w http.ResponseWriter, r *http.Request) {
	var volunteer domain.Volunteer
	if !decodeJSON(w, r, h.logger, &volunteer) {
		return
	}
	if volunteer.Name == "" {
		writeValidationError(w, h.logger, "name is required", "name", volunteer.Name)
		return
	}

	created, err := h.store.Create(r.Context(), &volunteer)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *VolunteerHandler) ListVolunteers(w http.ResponseWriter, r *http.Request) {
	volunteers, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, volunteers)
}

func (h *VolunteerHandler) DeleteVolunteer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type createAssignmentRequest struct {
	VolunteerID string `json:"volunteer_id"`
	LiturgyID   string `json:"liturgy_id"`
	Role        string `json:"role"`
	ServiceDate string `json:"service_date"`
}

// CreateAssignment schedules a volunteer into a role for a service.
// POST /api/assignments
func (h *VolunteerHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.VolunteerID == "" || req.LiturgyID == "" || req.Role == "" {
		writeValidationError(w, h.logger, "volunteer_id, liturgy_id and role are required", "volunteer_id", req.VolunteerID)
		return
	}
	serviceDate, ok := parseDate(req.ServiceDate)
	if !ok {
		writeValidationError(w, h.logger, "service_date must be RFC 3339 or YYYY-MM-DD", "service_date", req.ServiceDate)
		return
	}

	volunteer, err := h.store.FindByID(r.Context(), req.VolunteerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if volunteer == nil {
		writeNotFound(w, h.logger, "volunteer", req.VolunteerID)
		return
	}

	assignment, err := h.store.Assign(r.Context(), req.VolunteerID, req.LiturgyID, req.Role, serviceDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, assignment)
}

func (h *VolunteerHandler) ConfirmAssignment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.Confirm(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"confirmed": true})
}

// ListAssignments lists a liturgy's volunteer roster.
// GET /api/liturgies/{id}/assignments
func (h *VolunteerHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	liturgyID := mux.Vars(r)["id"]

	assignments, err := h.store.ListByLiturgy(r.Context(), liturgyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, assignments)
}
