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

type LiturgyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewLiturgyRepository(postgres *database.PostgresService, logger *zap.Logger) *LiturgyRepository {
	return &LiturgyRepository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

func (r *LiturgyRepository) Create(ctx context.Context, title, serviceType string, serviceDate time.Time) (*domain.Liturgy, error) {
	liturgy := &domain.Liturgy{
		ID:          uuid.NewString(),
		Title:       title,
		ServiceDate: serviceDate,
		ServiceType: serviceType,
		Status:      domain.StatusDraft,
		Elements:    []*domain.Element{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	query := `
		INSERT INTO liturgies (id, title, service_date, service_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		liturgy.ID, liturgy.Title, liturgy.ServiceDate, liturgy.ServiceType,
		string(liturgy.Status), liturgy.CreatedAt, liturgy.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert liturgy: %w", err)
	}

	return liturgy, nil
}

// FindByID returns the liturgy with its elements ordered by position, or nil
// when it does not exist.
func (r *LiturgyRepository) FindByID(ctx context.Context, id string) (*domain.Liturgy, error) {
	query := `
		SELECT id, title, service_date, service_type, status, created_at, updated_at
		FROM liturgies
		WHERE id = $1
		LIMIT 1
	`

	var (
		liturgyID   string
		title       string
		serviceDate time.Time
		serviceType string
		status      string
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&liturgyID, &title, &serviceDate, &serviceType, &status, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query liturgy: %w", err)
	}

	elements, err := r.findElements(ctx, liturgyID)
	if err != nil {
		return nil, err
	}

	return &domain.Liturgy{
		ID:          liturgyID,
		Title:       title,
		ServiceDate: serviceDate,
		ServiceType: serviceType,
		Status:      domain.PublicationStatus(status),
		Elements:    elements,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func (r *LiturgyRepository) List(ctx context.Context, limit int) ([]*domain.Liturgy, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, title, service_date, service_type, status, created_at, updated_at
		FROM liturgies
		ORDER BY service_date DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list liturgies: %w", err)
	}
	defer rows.Close()

	liturgies := make([]*domain.Liturgy, 0)
	for rows.Next() {
		var (
			l      domain.Liturgy
			status string
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.ServiceDate, &l.ServiceType, &status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan liturgy: %w", err)
		}
		l.Status = domain.PublicationStatus(status)
		liturgies = append(liturgies, &l)
	}

	return liturgies, rows.Err()
}

func (r *LiturgyRepository) UpdateStatus(ctx context.Context, id string, status domain.PublicationStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE liturgies SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update liturgy status: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *LiturgyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM liturgies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete liturgy: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *LiturgyRepository) AddElement(ctx context.Context, liturgyID string, elemType domain.ElementType, title string) (*domain.Element, error) {
	var position int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM elements WHERE liturgy_id = $1`,
		liturgyID,
	).Scan(&position)
	if err != nil {
		return nil, fmt.Errorf("failed to compute element position: %w", err)
	}

	element := &domain.Element{
		ID:    uuid.NewString(),
		Type:  elemType,
		Title: title,
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO elements (id, liturgy_id, type, title, position) VALUES ($1, $2, $3, $4, $5)`,
		element.ID, liturgyID, string(elemType), title, position,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert element: %w", err)
	}

	return element, nil
}

func (r *LiturgyRepository) DeleteElement(ctx context.Context, elementID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM elements WHERE id = $1`, elementID)
	if err != nil {
		return fmt.Errorf("failed to delete element: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// findElements loads element rows and fills the slide-range fields from the
// per-element slide counts, preserving insertion order.
func (r *LiturgyRepository) findElements(ctx context.Context, liturgyID string) ([]*domain.Element, error) {
	query := `
		SELECT e.id, e.type, e.title, COUNT(s.id)
		FROM elements e
		LEFT JOIN slides s ON s.element_id = e.id
		WHERE e.liturgy_id = $1
		GROUP BY e.id, e.type, e.title, e.position
		ORDER BY e.position
	`

	rows, err := r.db.QueryContext(ctx, query, liturgyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer rows.Close()

	elements := make([]*domain.Element, 0)
	next := 0
	for rows.Next() {
		var (
			e        domain.Element
			elemType string
			count    int
		)
		if err := rows.Scan(&e.ID, &elemType, &e.Title, &count); err != nil {
			return nil, fmt.Errorf("failed to scan element: %w", err)
		}
		e.Type = domain.ElementType(elemType)
		e.StartSlideIndex = next
		e.EndSlideIndex = next + count - 1
		e.SlideCount = count
		next += count
		elements = append(elements, &e)
	}

	return elements, rows.Err()
}

// FindSlides returns all slides of a liturgy in presentation order.
func (r *LiturgyRepository) FindSlides(ctx context.Context, liturgyID string) ([]*domain.Slide, error) {
	query := `
		SELECT s.id, s.element_id, s.primary_text, s.secondary_text, s.subtitle,
		       s.image_url, s.video_url, s.alignment,
		       s.illustration_x, s.illustration_y, s.illustration_scale
		FROM slides s
		JOIN elements e ON e.id = s.element_id
		WHERE e.liturgy_id = $1
		ORDER BY e.position, s.position
	`

	rows, err := r.db.QueryContext(ctx, query, liturgyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query slides: %w", err)
	}
	defer rows.Close()

	slides := make([]*domain.Slide, 0)
	for rows.Next() {
		var (
			s         domain.Slide
			alignment string
		)
		if err := rows.Scan(&s.ID, &s.ElementID, &s.PrimaryText, &s.SecondaryText, &s.Subtitle,
			&s.ImageURL, &s.VideoURL, &alignment,
			&s.IllustrationX, &s.IllustrationY, &s.IllustrationScale); err != nil {
			return nil, fmt.Errorf("failed to scan slide: %w", err)
		}
		s.Alignment = domain.TextAlignment(alignment)
		slides = append(slides, &s)
	}

	return slides, rows.Err()
}

func (r *LiturgyRepository) AddSlide(ctx context.Context, elementID string, slide *domain.Slide) (*domain.Slide, error) {
	var position int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM slides WHERE element_id = $1`,
		elementID,
	).Scan(&position)
	if err != nil {
		return nil, fmt.Errorf("failed to compute slide position: %w", err)
	}

	out := *slide
	out.ID = uuid.NewString()
	out.ElementID = elementID
	if out.Alignment == "" {
		out.Alignment = domain.AlignCenter
	}
	if out.IllustrationScale == 0 {
		out.IllustrationScale = 1
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO slides (id, element_id, position, primary_text, secondary_text, subtitle,
			image_url, video_url, alignment, illustration_x, illustration_y, illustration_scale)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		out.ID, out.ElementID, position, out.PrimaryText, out.SecondaryText, out.Subtitle,
		out.ImageURL, out.VideoURL, string(out.Alignment),
		out.IllustrationX, out.IllustrationY, out.IllustrationScale,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert slide: %w", err)
	}

	return &out, nil
}

// UpdateSlideContent persists a content save. This is the durable counterpart
// to a presenter temp edit.
func (r *LiturgyRepository) UpdateSlideContent(ctx context.Context, slideID string, content *domain.SlideContent) error {
	existing, err := r.findSlide(ctx, slideID)
	if err != nil {
		return err
	}
	if existing == nil {
		return sql.ErrNoRows
	}

	updated := content.ApplyTo(existing)

	_, err = r.db.ExecContext(ctx, `
		UPDATE slides
		SET primary_text = $1, secondary_text = $2, subtitle = $3, image_url = $4
		WHERE id = $5
	`, updated.PrimaryText, updated.SecondaryText, updated.Subtitle, updated.ImageURL, slideID)
	if err != nil {
		return fmt.Errorf("failed to update slide: %w", err)
	}

	return nil
}

func (r *LiturgyRepository) DeleteSlide(ctx context.Context, slideID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM slides WHERE id = $1`, slideID)
	if err != nil {
		return fmt.Errorf("failed to delete slide: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *LiturgyRepository) findSlide(ctx context.Context, slideID string) (*domain.Slide, error) {
	var (
		s         domain.Slide
		alignment string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, element_id, primary_text, secondary_text, subtitle,
		       image_url, video_url, alignment,
		       illustration_x, illustration_y, illustration_scale
		FROM slides WHERE id = $1 LIMIT 1
	`, slideID).Scan(&s.ID, &s.ElementID, &s.PrimaryText, &s.SecondaryText, &s.Subtitle,
		&s.ImageURL, &s.VideoURL, &alignment,
		&s.IllustrationX, &s.IllustrationY, &s.IllustrationScale)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query slide: %w", err)
	}
	s.Alignment = domain.TextAlignment(alignment)
	return &s, nil
}

// marshalJSON is shared by repositories storing JSONB columns.
func marshalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON column: %w", err)
	}
	return data, nil
}
