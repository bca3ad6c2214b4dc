package domain

import "time"

type EntryKind string

const (
	EntryIncome  EntryKind = "income"
	EntryExpense EntryKind = "expense"
)

type BudgetCategory struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Yearly float64 `json:"yearly_budget"`
}

type BudgetEntry struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Kind       EntryKind `json:"kind"`
	Amount     float64   `json:"amount"`
	Concept    string    `json:"concept"`
	EntryDate  time.Time `json:"entry_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// MonthlySummary aggregates one category for one month.
type MonthlySummary struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	Income       float64 `json:"income"`
	Expense      float64 `json:"expense"`
	Balance      float64 `json:"balance"`
}
