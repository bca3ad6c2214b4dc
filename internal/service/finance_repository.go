package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/service/database"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FinanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewFinanceRepository(postgres *database.PostgresService, logger *zap.Logger) *FinanceRepository {
	return &FinanceRepository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

func (r *FinanceRepository) CreateCategory(ctx context.Context, name string, yearly float64) (*domain.BudgetCategory, error) {
	category := &domain.BudgetCategory{
		ID:     uuid.NewString(),
		Name:   name,
		Yearly: yearly,
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_categories (id, name, yearly_budget) VALUES ($1, $2, $3)`,
		category.ID, category.Name, category.Yearly,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert budget category: %w", err)
	}

	return category, nil
}

func (r *FinanceRepository) ListCategories(ctx context.Context) ([]*domain.BudgetCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, yearly_budget FROM budget_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*domain.BudgetCategory, 0)
	for rows.Next() {
		var c domain.BudgetCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Yearly); err != nil {
			return nil, fmt.Errorf("failed to scan budget category: %w", err)
		}
		categories = append(categories, &c)
	}

	return categories, rows.Err()
}

func (r *FinanceRepository) AddEntry(ctx context.Context, entry *domain.BudgetEntry) (*domain.BudgetEntry, error) {
	out := *entry
	out.ID = uuid.NewString()
	out.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_entries (id, category_id, kind, amount, concept, entry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, out.ID, out.CategoryID, string(out.Kind), out.Amount, out.Concept, out.EntryDate, out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert budget entry: %w", err)
	}

	return &out, nil
}

func (r *FinanceRepository) ListEntries(ctx context.Context, categoryID string, year int) ([]*domain.BudgetEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category_id, kind, amount, concept, entry_date, created_at
		FROM budget_entries
		WHERE category_id = $1 AND EXTRACT(YEAR FROM entry_date) = $2
		ORDER BY entry_date
	`, categoryID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.BudgetEntry, 0)
	for rows.Next() {
		var (
			e    domain.BudgetEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.CategoryID, &kind, &e.Amount, &e.Concept, &e.EntryDate, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget entry: %w", err)
		}
		e.Kind = domain.EntryKind(kind)
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// MonthlyReport aggregates income/expense per category for one month.
func (r *FinanceRepository) MonthlyReport(ctx context.Context, year, month int) ([]*domain.MonthlySummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name,
		       COALESCE(SUM(CASE WHEN e.kind = 'income' THEN e.amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN e.kind = 'expense' THEN e.amount ELSE 0 END), 0)
		FROM budget_categories c
		LEFT JOIN budget_entries e
		   ON e.category_id = c.id
		  AND EXTRACT(YEAR FROM e.entry_date) = $1
		  AND EXTRACT(MONTH FROM e.entry_date) = $2
		GROUP BY c.id, c.name
		ORDER BY c.name
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to build monthly report: %w", err)
	}
	defer rows.Close()

	summaries := make([]*domain.MonthlySummary, 0)
	for rows.Next() {
		s := &domain.MonthlySummary{Year: year, Month: month}
		if err := rows.Scan(&s.CategoryID, &s.CategoryName, &s.Income, &s.Expense); err != nil {
			return nil, fmt.Errorf("failed to scan monthly summary: %w", err)
		}
		s.Balance = s.Income - s.Expense
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}
