package domain

import "time"

type Volunteer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	WebhookURL string    `json:"webhook_url,omitempty"`
	Roles      []string  `json:"roles"`
	CreatedAt  time.Time `json:"created_at"`
}

// Assignment schedules a volunteer into a role for one service date.
type Assignment struct {
	ID          string    `json:"id"`
	VolunteerID string    `json:"volunteer_id"`
	LiturgyID   string    `json:"liturgy_id"`
	Role        string    `json:"role"`
	ServiceDate time.Time `json:"service_date"`
	Confirmed   bool      `json:"confirmed"`
}

// AssignmentReminder is one pending notification for an upcoming assignment.
type AssignmentReminder struct {
	Assignment   *Assignment `json:"assignment"`
	Volunteer    *Volunteer  `json:"volunteer"`
	LiturgyTitle string      `json:"liturgy_title"`
	HoursUntil   int         `json:"hours_until"`
}
