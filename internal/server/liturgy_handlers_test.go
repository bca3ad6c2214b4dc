package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type fakeLiturgyStore struct {
	liturgies map[string]*domain.Liturgy
	slides    map[string][]*domain.Slide
	statuses  map[string]domain.PublicationStatus
}

func newFakeLiturgyStore() *fakeLiturgyStore {
	return &fakeLiturgyStore{
		liturgies: make(map[string]*domain.Liturgy),
		slides:    make(map[string][]*domain.Slide),
		statuses:  make(map[string]domain.PublicationStatus),
	}
}

func (f *fakeLiturgyStore) Create(_ context.Context, title, serviceType string, serviceDate time.Time) (*domain.Liturgy, error) {
	liturgy := &domain.Liturgy{
		ID:          "lit-" + title,
		Title:       title,
		ServiceType: serviceType,
		ServiceDate: serviceDate,
		Status:      domain.StatusDraft,
	}
	f.liturgies[liturgy.ID] = liturgy
	return liturgy, nil
}

func (f *fakeLiturgyStore) FindByID(_ context.Context, id string) (*domain.Liturgy, error) {
	return f.liturgies[id], nil
}

func (f *fakeLiturgyStore) List(_ context.Context, _ int) ([]*domain.Liturgy, error) {
	out := make([]*domain.Liturgy, 0, len(f.liturgies))
	for _, l := range f.liturgies {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLiturgyStore) UpdateStatus(_ context.Context, id string, status domain.PublicationStatus) error {
	f.statuses[id] = status
	return nil
}

func (f *fakeLiturgyStore) Delete(_ context.Context, id string) error {
	delete(f.liturgies, id)
	return nil
}

func (f *fakeLiturgyStore) AddElement(_ context.Context, liturgyID string, elemType domain.ElementType, title string) (*domain.Element, error) {
	return &domain.Element{ID: "elem-1", Type: elemType, Title: title}, nil
}

func (f *fakeLiturgyStore) DeleteElement(_ context.Context, _ string) error { return nil }

func (f *fakeLiturgyStore) FindSlides(_ context.Context, liturgyID string) ([]*domain.Slide, error) {
	return f.slides[liturgyID], nil
}

func (f *fakeLiturgyStore) AddSlide(_ context.Context, elementID string, slide *domain.Slide) (*domain.Slide, error) {
	slide.ID = "slide-1"
	slide.ElementID = elementID
	return slide, nil
}

func (f *fakeLiturgyStore) UpdateSlideContent(_ context.Context, _ string, _ *domain.SlideContent) error {
	return nil
}

func (f *fakeLiturgyStore) DeleteSlide(_ context.Context, _ string) error { return nil }

func newLiturgyTestRouter(store LiturgyStore) *mux.Router {
	router := mux.NewRouter()
	NewLiturgyHandler(store, zap.NewNop()).Register(router)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateLiturgy(t *testing.T) {
	store := newFakeLiturgyStore()
	router := newLiturgyTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/api/liturgies", map[string]string{
		"title":        "Primer Domingo",
		"service_date": "2026-03-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got domain.Liturgy
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Title != "Primer Domingo" {
		t.Fatalf("title = %q", got.Title)
	}
	if got.ServiceType != "culto_dominical" {
		t.Fatalf("service type default = %q", got.ServiceType)
	}
}

func TestCreateLiturgyValidation(t *testing.T) {
	router := newLiturgyTestRouter(newFakeLiturgyStore())

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing title", map[string]string{"service_date": "2026-03-01"}},
		{"bad date", map[string]string{"title": "Culto", "service_date": "mañana"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/liturgies", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestGetLiturgyNotFound(t *testing.T) {
	router := newLiturgyTestRouter(newFakeLiturgyStore())

	rec := doJSON(t, router, http.MethodGet, "/api/liturgies/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateStatus(t *testing.T) {
	store := newFakeLiturgyStore()
	router := newLiturgyTestRouter(store)

	rec := doJSON(t, router, http.MethodPatch, "/api/liturgies/lit-1/status", map[string]string{
		"status": "published",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if store.statuses["lit-1"] != domain.StatusPublished {
		t.Fatalf("stored status = %q", store.statuses["lit-1"])
	}

	rec = doJSON(t, router, http.MethodPatch, "/api/liturgies/lit-1/status", map[string]string{
		"status": "retired",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status accepted: %d", rec.Code)
	}
}

func TestAddElementRequiresType(t *testing.T) {
	router := newLiturgyTestRouter(newFakeLiturgyStore())

	rec := doJSON(t, router, http.MethodPost, "/api/liturgies/lit-1/elements", map[string]string{
		"title": "Sin tipo",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/liturgies/lit-1/elements", map[string]string{
		"type":  "song",
		"title": "Alabanza",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
