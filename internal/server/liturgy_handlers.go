package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// LiturgyStore is the slice of the liturgy repository the handlers need.
type LiturgyStore interface {
	Create(ctx context.Context, title, serviceType string, serviceDate time.Time) (*domain.Liturgy, error)
	FindByID(ctx context.Context, id string) (*domain.Liturgy, error)
	List(ctx context.Context, limit int) ([]*domain.Liturgy, error)
	UpdateStatus(ctx context.Context, id string, status domain.PublicationStatus) error
	Delete(ctx context.Context, id string) error
	AddElement(ctx context.Context, liturgyID string, elemType domain.ElementType, title string) (*domain.Element, error)
	DeleteElement(ctx context.Context, elementID string) error
	FindSlides(ctx context.Context, liturgyID string) ([]*domain.Slide, error)
	AddSlide(ctx context.Context, elementID string, slide *domain.Slide) (*domain.Slide, error)
	UpdateSlideContent(ctx context.Context, slideID string, content *domain.SlideContent) error
	DeleteSlide(ctx context.Context, slideID string) error
}

type LiturgyHandler struct {
	store  LiturgyStore
	logger *zap.Logger
}

func NewLiturgyHandler(store LiturgyStore, logger *zap.Logger) *LiturgyHandler {
	return &LiturgyHandler{store: store, logger: logger}
}

func (h *LiturgyHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/liturgies", h.CreateLiturgy).Methods("POST")
	r.HandleFunc("/api/liturgies", h.ListLiturgies).Methods("GET")
	r.HandleFunc("/api/liturgies/{id}", h.GetLiturgy).Methods("GET")
	r.HandleFunc("/api/liturgies/{id}", h.DeleteLiturgy).Methods("DELETE")
	r.HandleFunc("/api/liturgies/{id}/status", h.UpdateStatus).Methods("PATCH")
	r.HandleFunc("/api/liturgies/{id}/elements", h.AddElement).Methods("POST")
	r.HandleFunc("/api/liturgies/{id}/slides", h.ListSlides).Methods("GET")
	r.HandleFunc("/api/elements/{id}", h.DeleteElement).Methods("DELETE")
	r.HandleFunc("/api/elements/{id}/slides", h.AddSlide).Methods("POST")
	r.HandleFunc("/api/slides/{id}", h.UpdateSlide).Methods("PUT")
	r.HandleFunc("/api/slides/{id}", h.DeleteSlide).Methods("DELETE")
}

type createLiturgyRequest struct {
	Title       string `json:"title"`
	ServiceType string `json:"service_type"`
	ServiceDate string `json:"service_date"` // RFC 3339 or YYYY-MM-DD
}

// CreateLiturgy creates an empty liturgy.
// POST /api/liturgies
func (h *LiturgyHandler) CreateLiturgy(w http.ResponseWriter, r *http.Request) {
	var req createLiturgyRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	if req.Title == "" {
		writeValidationError(w, h.logger, "title is required", "title", req.Title)
		return
	}
	serviceDate, ok := parseDate(req.ServiceDate)
	if !ok {
		writeValidationError(w, h.logger, "service_date must be RFC 3339 or YYYY-MM-DD", "service_date", req.ServiceDate)
		return
	}
	if req.ServiceType == "" {
		req.ServiceType = "culto_dominical"
	}

	liturgy, err := h.store.Create(r.Context(), req.Title, req.ServiceType, serviceDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, liturgy)
}

// ListLiturgies lists recent liturgies.
// GET /api/liturgies?limit=N
func (h *LiturgyHandler) ListLiturgies(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	liturgies, err := h.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, liturgies)
}

// GetLiturgy returns a liturgy with its elements.
// GET /api/liturgies/{id}
func (h *LiturgyHandler) GetLiturgy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	liturgy, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if liturgy == nil {
		writeNotFound(w, h.logger, "liturgy", id)
		return
	}

	writeJSON(w, http.StatusOK, liturgy)
}

func (h *LiturgyHandler) DeleteLiturgy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type updateStatusRequest struct {
	Status domain.PublicationStatus `json:"status"`
}

// UpdateStatus moves a liturgy between draft, published and archived.
// PATCH /api/liturgies/{id}/status
func (h *LiturgyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateStatusRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	switch req.Status {
	case domain.StatusDraft, domain.StatusPublished, domain.StatusArchived:
	default:
		writeValidationError(w, h.logger, "unknown publication status", "status", string(req.Status))
		return
	}

	if err := h.store.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

type addElementRequest struct {
	Type  domain.ElementType `json:"type"`
	Title string             `json:"title"`
}

// AddElement appends an element to a liturgy.
// POST /api/liturgies/{id}/elements
func (h *LiturgyHandler) AddElement(w http.ResponseWriter, r *http.Request) {
	liturgyID := mux.Vars(r)["id"]

	var req addElementRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.Type == "" {
		writeValidationError(w, h.logger, "type is required", "type", req.Type)
		return
	}

	element, err := h.store.AddElement(r.Context(), liturgyID, req.Type, req.Title)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, element)
}

func (h *LiturgyHandler) DeleteElement(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.DeleteElement(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ListSlides returns the liturgy's slides in presentation order.
// GET /api/liturgies/{id}/slides
func (h *LiturgyHandler) ListSlides(w http.ResponseWriter, r *http.Request) {
	liturgyID := mux.Vars(r)["id"]

	slides, err := h.store.FindSlides(r.Context(), liturgyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, slides)
}

// AddSlide appends a slide to an element.
// POST /api/elements/{id}/slides
func (h *LiturgyHandler) AddSlide(w http.ResponseWriter, r *http.Request) {
	elementID := mux.Vars(r)["id"]

	var slide domain.Slide
	if !decodeJSON(w, r, h.logger, &slide) {
		return
	}

	created, err := h.store.AddSlide(r.Context(), elementID, &slide)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// UpdateSlide persists slide content changes.
// PUT /api/slides/{id}
func (h *LiturgyHandler) UpdateSlide(w http.ResponseWriter, r *http.Request) {
	slideID := mux.Vars(r)["id"]

	var content domain.SlideContent
	if !decodeJSON(w, r, h.logger, &content) {
		return
	}

	if err := h.store.UpdateSlideContent(r.Context(), slideID, &content); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (h *LiturgyHandler) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	slideID := mux.Vars(r)["id"]

	if err := h.store.DeleteSlide(r.Context(), slideID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func parseDate(value string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
