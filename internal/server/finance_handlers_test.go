package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type fakeFinanceStore struct {
	categories []*domain.BudgetCategory
	entries    []*domain.BudgetEntry
}

func (f *fakeFinanceStore) CreateCategory(_ context.Context, name string, yearly float64) (*domain.BudgetCategory, error) {
	c := &domain.BudgetCategory{ID: fmt.Sprintf("cat-%d", len(f.categories)), Name: name, Yearly: yearly}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeFinanceStore) ListCategories(_ context.Context) ([]*domain.BudgetCategory, error) {
	return f.categories, nil
}

func (f *fakeFinanceStore) AddEntry(_ context.Context, entry *domain.BudgetEntry) (*domain.BudgetEntry, error) {
	entry.ID = fmt.Sprintf("entry-%d", len(f.entries))
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeFinanceStore) ListEntries(_ context.Context, categoryID string, _ int) ([]*domain.BudgetEntry, error) {
	out := []*domain.BudgetEntry{}
	for _, e := range f.entries {
		if categoryID == "" || e.CategoryID == categoryID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeFinanceStore) MonthlyReport(_ context.Context, year, month int) ([]*domain.MonthlySummary, error) {
	return []*domain.MonthlySummary{}, nil
}

func newFinanceTestRouter(store FinanceStore) *mux.Router {
	router := mux.NewRouter()
	NewFinanceHandler(store, zap.NewNop()).Register(router)
	return router
}

func TestAddEntryValidation(t *testing.T) {
	router := newFinanceTestRouter(&fakeFinanceStore{})

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing category", map[string]any{"kind": "income", "amount": 10.0}},
		{"bad kind", map[string]any{"category_id": "cat-0", "kind": "transfer", "amount": 10.0}},
		{"zero amount", map[string]any{"category_id": "cat-0", "kind": "expense", "amount": 0.0}},
		{"negative amount", map[string]any{"category_id": "cat-0", "kind": "expense", "amount": -5.0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/finance/entries", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAddEntryDefaultsDate(t *testing.T) {
	store := &fakeFinanceStore{}
	router := newFinanceTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/api/finance/entries", map[string]any{
		"category_id": "cat-0",
		"kind":        "income",
		"amount":      120.50,
		"concept":     "ofrenda",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if store.entries[0].EntryDate.IsZero() {
		t.Fatal("entry date not defaulted")
	}
}

func TestMonthlyReportRejectsBadMonth(t *testing.T) {
	router := newFinanceTestRouter(&fakeFinanceStore{})

	rec := doJSON(t, router, http.MethodGet, "/api/finance/report?year=2026&month=13", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
