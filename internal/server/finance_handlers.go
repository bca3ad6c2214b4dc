package server

import (
	"context"
	"net/http"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type FinanceStore interface {
	CreateCategory(ctx context.Context, name string, yearly float64) (*domain.BudgetCategory, error)
	ListCategories(ctx context.Context) ([]*domain.BudgetCategory, error)
	AddEntry(ctx context.Context, entry *domain.BudgetEntry) (*domain.BudgetEntry, error)
	ListEntries(ctx context.Context, categoryID string, year int) ([]*domain.BudgetEntry, error)
	MonthlyReport(ctx context.Context, year, month int) ([]*domain.MonthlySummary, error)
}

type FinanceHandler struct {
	store  FinanceStore
	logger *zap.Logger
}

func NewFinanceHandler(store FinanceStore, logger *zap.Logger) *FinanceHandler {
	return &FinanceHandler{store: store, logger: logger}
}

func (h *FinanceHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/finance/categories", h.CreateCategory).Methods("POST")
	r.HandleFunc("/api/finance/categories", h.ListCategories).Methods("GET")
	r.HandleFunc("/api/finance/entries", h.AddEntry).Methods("POST")
	r.HandleFunc("/api/finance/entries", h.ListEntries).Methods("GET")
	r.HandleFunc("/api/finance/report", h.MonthlyReport).Methods("GET")
}

type createCategoryRequest struct {
	Name   string  `json:"name"`
	Yearly float64 `json:"yearly_budget"`
}

// CreateCategory opens a budget line.
// POST /api/finance/categories
func (h *FinanceHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.Name == "" {
		writeValidationError(w, h.logger, "name is required", "name", req.Name)
		return
	}

	category, err := h.store.CreateCategory(r.Context(), req.Name, req.Yearly)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

func (h *FinanceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

type addEntryRequest struct {
	CategoryID string           `json:"category_id"`
	Kind       domain.EntryKind `json:"kind"`
	Amount     float64          `json:"amount"`
	Concept    string           `json:"concept"`
	EntryDate  string           `json:"entry_date"`
}

// AddEntry records an income or expense movement.
// POST /api/finance/entries
func (h *FinanceHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	if req.CategoryID == "" {
		writeValidationError(w, h.logger, "category_id is required", "category_id", req.CategoryID)
		return
	}
	if req.Kind != domain.EntryIncome && req.Kind != domain.EntryExpense {
		writeValidationError(w, h.logger, "kind must be income or expense", "kind", string(req.Kind))
		return
	}
	if req.Amount <= 0 {
		writeValidationError(w, h.logger, "amount must be positive", "amount", req.Amount)
		return
	}

	entryDate, ok := parseDate(req.EntryDate)
	if !ok {
		entryDate = time.Now()
	}

	entry, err := h.store.AddEntry(r.Context(), &domain.BudgetEntry{
		CategoryID: req.CategoryID,
		Kind:       req.Kind,
		Amount:     req.Amount,
		Concept:    req.Concept,
		EntryDate:  entryDate,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// ListEntries lists entries, optionally narrowed by category and year.
// GET /api/finance/entries?category_id=...&year=N
func (h *FinanceHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	categoryID := r.URL.Query().Get("category_id")
	year := queryInt(r, "year", time.Now().Year())

	entries, err := h.store.ListEntries(r.Context(), categoryID, year)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// MonthlyReport aggregates income and expense per category for one month.
// GET /api/finance/report?year=N&month=M
func (h *FinanceHandler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))

	if month < 1 || month > 12 {
		writeValidationError(w, h.logger, "month must be between 1 and 12", "month", month)
		return
	}

	report, err := h.store.MonthlyReport(r.Context(), year, month)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
