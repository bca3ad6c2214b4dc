package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/service/database"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type VolunteerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewVolunteerRepository(postgres *database.PostgresService, logger *zap.Logger) *VolunteerRepository {
	return &VolunteerRepository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

func (r *VolunteerRepository) Create(ctx context.Context, v *domain.Volunteer) (*domain.Volunteer, error) {
	out := *v
	out.ID = uuid.NewString()
	out.CreatedAt = time.Now()

	rolesJSON, err := marshalJSON(out.Roles)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO volunteers (id, name, email, phone, webhook_url, roles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, out.ID, out.Name, out.Email, out.Phone, out.WebhookURL, rolesJSON, out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert volunteer: %w", err)
	}

	return &out, nil
}

func (r *VolunteerRepository) FindByID(ctx context.Context, id string) (*domain.Volunteer, error) {
	var (
		v         domain.Volunteer
		rolesJSON []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, webhook_url, roles, created_at
		FROM volunteers WHERE id = $1 LIMIT 1
	`, id).Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.WebhookURL, &rolesJSON, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteer: %w", err)
	}
	if err := json.Unmarshal(rolesJSON, &v.Roles); err != nil {
		r.logger.Warn("Failed to decode volunteer roles", zap.String("volunteer_id", v.ID), zap.Error(err))
	}
	return &v, nil
}

func (r *VolunteerRepository) List(ctx context.Context) ([]*domain.Volunteer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, phone, webhook_url, roles, created_at
		FROM volunteers ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	defer rows.Close()

	volunteers := make([]*domain.Volunteer, 0)
	for rows.Next() {
		var (
			v         domain.Volunteer
			rolesJSON []byte
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.WebhookURL, &rolesJSON, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		_ = json.Unmarshal(rolesJSON, &v.Roles)
		volunteers = append(volunteers, &v)
	}

	return volunteers, rows.Err()
}

func (r *VolunteerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM volunteers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete volunteer: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *VolunteerRepository) Assign(ctx context.Context, volunteerID, liturgyID, role string, serviceDate time.Time) (*domain.Assignment, error) {
	assignment := &domain.Assignment{
		ID:          uuid.NewString(),
		VolunteerID: volunteerID,
		LiturgyID:   liturgyID,
		Role:        role,
		ServiceDate: serviceDate,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assignments (id, volunteer_id, liturgy_id, role, service_date, confirmed)
		VALUES ($1, $2, $3, $4, $5, false)
	`, assignment.ID, volunteerID, liturgyID, role, serviceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to insert assignment: %w", err)
	}

	return assignment, nil
}

func (r *VolunteerRepository) Confirm(ctx context.Context, assignmentID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE assignments SET confirmed = true WHERE id = $1`, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to confirm assignment: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *VolunteerRepository) ListByLiturgy(ctx context.Context, liturgyID string) ([]*domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, volunteer_id, liturgy_id, role, service_date, confirmed
		FROM assignments WHERE liturgy_id = $1 ORDER BY role
	`, liturgyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

// FindUpcoming returns assignments whose service date falls inside the window
// [now, now+window], joined with their volunteers for reminder dispatch.
func (r *VolunteerRepository) FindUpcoming(ctx context.Context, window time.Duration) ([]*domain.AssignmentReminder, error) {
	now := time.Now()

	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.volunteer_id, a.liturgy_id, a.role, a.service_date, a.confirmed,
		       v.name, v.email, v.phone, v.webhook_url, l.title
		FROM assignments a
		JOIN volunteers v ON v.id = a.volunteer_id
		JOIN liturgies l ON l.id = a.liturgy_id
		WHERE a.service_date BETWEEN $1 AND $2
		ORDER BY a.service_date
	`, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming assignments: %w", err)
	}
	defer rows.Close()

	reminders := make([]*domain.AssignmentReminder, 0)
	for rows.Next() {
		var (
			a            domain.Assignment
			v            domain.Volunteer
			liturgyTitle string
		)
		if err := rows.Scan(&a.ID, &a.VolunteerID, &a.LiturgyID, &a.Role, &a.ServiceDate, &a.Confirmed,
			&v.Name, &v.Email, &v.Phone, &v.WebhookURL, &liturgyTitle); err != nil {
			return nil, fmt.Errorf("failed to scan upcoming assignment: %w", err)
		}
		v.ID = a.VolunteerID
		reminders = append(reminders, &domain.AssignmentReminder{
			Assignment:   &a,
			Volunteer:    &v,
			LiturgyTitle: liturgyTitle,
			HoursUntil:   int(time.Until(a.ServiceDate).Hours()),
		})
	}

	return reminders, rows.Err()
}

func scanAssignments(rows *sql.Rows) ([]*domain.Assignment, error) {
	assignments := make([]*domain.Assignment, 0)
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ID, &a.VolunteerID, &a.LiturgyID, &a.Role, &a.ServiceDate, &a.Confirmed); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, &a)
	}
	return assignments, rows.Err()
}
