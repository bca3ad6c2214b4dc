package domain

import "time"

// Participant is one Mesa Abierta sign-up. Hosts declare how many guests
// their table seats (themselves excluded).
type Participant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	IsHost       bool      `json:"is_host"`
	HostCapacity int       `json:"host_capacity,omitempty"`
	DietaryNotes string    `json:"dietary_notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DinnerGroup is one matched table for a round.
type DinnerGroup struct {
	ID        string   `json:"id"`
	RoundID   string   `json:"round_id"`
	HostID    string   `json:"host_id"`
	MemberIDs []string `json:"member_ids"`
}

// DinnerRound is one matching run over the current sign-ups.
type DinnerRound struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	MatchedAt time.Time      `json:"matched_at"`
	Groups    []*DinnerGroup `json:"groups"`
}
