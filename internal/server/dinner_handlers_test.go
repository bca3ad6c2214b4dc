package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/service/matching"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type fakeDinnerStore struct {
	participants []*domain.Participant
	rounds       []*domain.DinnerRound
	history      map[[2]string]int
}

func (f *fakeDinnerStore) CreateParticipant(_ context.Context, p *domain.Participant) (*domain.Participant, error) {
	p.ID = fmt.Sprintf("p-%d", len(f.participants))
	f.participants = append(f.participants, p)
	return p, nil
}

func (f *fakeDinnerStore) ListParticipants(_ context.Context) ([]*domain.Participant, error) {
	return f.participants, nil
}

func (f *fakeDinnerStore) DeleteParticipant(_ context.Context, id string) error {
	for i, p := range f.participants {
		if p.ID == id {
			f.participants = append(f.participants[:i], f.participants[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeDinnerStore) SaveRound(_ context.Context, round *domain.DinnerRound) error {
	f.rounds = append(f.rounds, round)
	return nil
}

func (f *fakeDinnerStore) ListRounds(_ context.Context, _ int) ([]*domain.DinnerRound, error) {
	return f.rounds, nil
}

func (f *fakeDinnerStore) PairHistory(_ context.Context) (map[[2]string]int, error) {
	if f.history == nil {
		return map[[2]string]int{}, nil
	}
	return f.history, nil
}

func newDinnerTestRouter(store DinnerStore) *mux.Router {
	router := mux.NewRouter()
	NewDinnerHandler(store, matching.NewMatcher(zap.NewNop()), zap.NewNop()).Register(router)
	return router
}

func seedDinnerStore(hosts, guests int) *fakeDinnerStore {
	store := &fakeDinnerStore{}
	for i := 0; i < hosts; i++ {
		store.participants = append(store.participants, &domain.Participant{
			ID: fmt.Sprintf("host-%d", i), Name: fmt.Sprintf("Anfitrión %d", i),
			IsHost: true, HostCapacity: 6,
		})
	}
	for i := 0; i < guests; i++ {
		store.participants = append(store.participants, &domain.Participant{
			ID: fmt.Sprintf("guest-%d", i), Name: fmt.Sprintf("Invitado %d", i),
		})
	}
	return store
}

func TestCreateParticipantValidation(t *testing.T) {
	router := newDinnerTestRouter(&fakeDinnerStore{})

	rec := doJSON(t, router, http.MethodPost, "/api/dinner/participants", map[string]any{
		"is_host": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("nameless participant accepted: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/dinner/participants", map[string]any{
		"name":    "María",
		"is_host": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("host without capacity accepted: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/dinner/participants", map[string]any{
		"name":          "María",
		"is_host":       true,
		"host_capacity": 6,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCreateRoundMatchesAndPersists(t *testing.T) {
	store := seedDinnerStore(2, 6)
	router := newDinnerTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/api/dinner/rounds", map[string]any{
		"label": "marzo 2026",
		"seed":  42,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var round domain.DinnerRound
	if err := json.Unmarshal(rec.Body.Bytes(), &round); err != nil {
		t.Fatalf("decode round: %v", err)
	}
	if round.Label != "marzo 2026" {
		t.Fatalf("label = %q", round.Label)
	}

	seated := 0
	for _, g := range round.Groups {
		seated += 1 + len(g.MemberIDs)
	}
	if seated != 8 {
		t.Fatalf("seated %d of 8 participants", seated)
	}

	if len(store.rounds) != 1 {
		t.Fatalf("round not persisted: %d", len(store.rounds))
	}
}

func TestCreateRoundDeterministicForSeed(t *testing.T) {
	store := seedDinnerStore(2, 6)
	router := newDinnerTestRouter(store)

	run := func() *domain.DinnerRound {
		rec := doJSON(t, router, http.MethodPost, "/api/dinner/rounds", map[string]any{
			"label": "ronda", "seed": 7,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var round domain.DinnerRound
		if err := json.Unmarshal(rec.Body.Bytes(), &round); err != nil {
			t.Fatalf("decode round: %v", err)
		}
		return &round
	}

	first, second := run(), run()
	for i := range first.Groups {
		if first.Groups[i].HostID != second.Groups[i].HostID {
			t.Fatalf("same seed produced different hosts: %q vs %q",
				first.Groups[i].HostID, second.Groups[i].HostID)
		}
		if fmt.Sprint(first.Groups[i].MemberIDs) != fmt.Sprint(second.Groups[i].MemberIDs) {
			t.Fatalf("same seed produced different groups")
		}
	}
}

func TestCreateRoundInsufficientCapacity(t *testing.T) {
	store := seedDinnerStore(1, 9) // one table of 6 cannot seat 10 people
	router := newDinnerTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/api/dinner/rounds", map[string]any{
		"label": "desborde",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCreateRoundRequiresLabel(t *testing.T) {
	router := newDinnerTestRouter(seedDinnerStore(2, 6))

	rec := doJSON(t, router, http.MethodPost, "/api/dinner/rounds", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
