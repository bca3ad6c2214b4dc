package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/presenter"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type fakeSessionLoader struct {
	liturgy *domain.Liturgy
	slides  []*domain.Slide
}

func (f *fakeSessionLoader) FindByID(_ context.Context, id string) (*domain.Liturgy, error) {
	if f.liturgy != nil && f.liturgy.ID == id {
		return f.liturgy, nil
	}
	return nil, nil
}

func (f *fakeSessionLoader) FindSlides(_ context.Context, _ string) ([]*domain.Slide, error) {
	return f.slides, nil
}

type fakePrefStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakePrefStore() *fakePrefStore {
	return &fakePrefStore{data: make(map[string][]byte)}
}

func (f *fakePrefStore) Get(_ context.Context, key string, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakePrefStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = raw
	return nil
}

// newPresenterTestRouter serves a welcome element with one slide followed by
// a song element with two.
func newPresenterTestRouter() *mux.Router {
	liturgy := &domain.Liturgy{
		ID:          "lit-1",
		Title:       "Culto de Prueba",
		ServiceDate: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
		Elements: []*domain.Element{
			{ID: "e0", Type: domain.ElementWelcome, Title: "Bienvenida", StartSlideIndex: 0, EndSlideIndex: 0, SlideCount: 1},
			{ID: "e1", Type: domain.ElementSong, Title: "Alabanza", StartSlideIndex: 1, EndSlideIndex: 2, SlideCount: 2},
		},
	}
	slides := []*domain.Slide{
		{ID: "s0", ElementID: "e0", PrimaryText: "Bienvenidos"},
		{ID: "s1", ElementID: "e1", PrimaryText: "estrofa 1"},
		{ID: "s2", ElementID: "e1", PrimaryText: "estrofa 2"},
	}

	logger := zap.NewNop()
	hub := presenter.NewHub(logger)
	loader := &fakeSessionLoader{liturgy: liturgy, slides: slides}
	manager := presenter.NewManager(loader, newFakePrefStore(), hub, logger)

	router := mux.NewRouter()
	NewPresenterHandler(manager, hub, logger).Register(router)
	return router
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) presenter.Snapshot {
	t.Helper()
	var snap presenter.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func TestGoToSlideClamps(t *testing.T) {
	router := newPresenterTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/presenter/lit-1/goto", map[string]int{"index": 99})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if snap := decodeSnapshot(t, rec); snap.CurrentSlide != 2 {
		t.Errorf("current slide = %d, want clamp to 2", snap.CurrentSlide)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/presenter/lit-1/goto", map[string]int{"index": -5})
	if snap := decodeSnapshot(t, rec); snap.CurrentSlide != 0 {
		t.Errorf("current slide = %d, want clamp to 0", snap.CurrentSlide)
	}
}

func TestGoToElementMovesCursorAndScene(t *testing.T) {
	router := newPresenterTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/presenter/lit-1/element", map[string]int{"index": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	snap := decodeSnapshot(t, rec)
	if snap.CurrentSlide != 1 || snap.CurrentElement != 1 {
		t.Errorf("cursor = (slide %d, element %d), want (1, 1)", snap.CurrentSlide, snap.CurrentElement)
	}
	if snap.Scene.Look.Name != "alabanza" {
		t.Errorf("scene = %q, want the song look", snap.Scene.Look.Name)
	}
}

func TestPresenterUnknownLiturgy(t *testing.T) {
	router := newPresenterTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/presenter/nope/goto", map[string]int{"index": 0})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAddTextOverlayCap(t *testing.T) {
	router := newPresenterTestRouter()

	type overlayResponse struct {
		ID       string `json:"id"`
		Accepted bool   `json:"accepted"`
	}

	for i := 0; i < 10; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/presenter/lit-1/overlays",
			map[string]string{"text": "aviso"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("overlay %d: status = %d, want 201", i, rec.Code)
		}
		var resp overlayResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("overlay %d: decode: %v", i, err)
		}
		if !resp.Accepted || resp.ID == "" {
			t.Fatalf("overlay %d: resp = %+v, want accepted with an id", i, resp)
		}
	}

	rec := doJSON(t, router, http.MethodPost, "/api/presenter/lit-1/overlays",
		map[string]string{"text": "uno de más"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status past cap = %d, want 200", rec.Code)
	}
	var resp overlayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Accepted || resp.ID != "" {
		t.Errorf("resp past cap = %+v, want rejected", resp)
	}
}

func TestSubscribeStreamsSnapshots(t *testing.T) {
	router := newPresenterTestRouter()
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/presenter/lit-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readSnapshot := func() presenter.Snapshot {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var snap presenter.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return snap
	}

	if snap := readSnapshot(); snap.CurrentSlide != 0 || snap.LiturgyID != "lit-1" {
		t.Fatalf("initial snapshot = (slide %d, liturgy %q)", snap.CurrentSlide, snap.LiturgyID)
	}

	if rec := doJSON(t, router, http.MethodPost, "/api/presenter/lit-1/next", nil); rec.Code != http.StatusOK {
		t.Fatalf("next: status = %d", rec.Code)
	}

	if snap := readSnapshot(); snap.CurrentSlide != 1 {
		t.Errorf("broadcast snapshot slide = %d, want 1", snap.CurrentSlide)
	}
}
