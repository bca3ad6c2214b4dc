package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/service/database"
	"github.com/casaiglesia/casa-server/internal/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SongRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSongRepository(postgres *database.PostgresService, logger *zap.Logger) *SongRepository {
	return &SongRepository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

func (r *SongRepository) Create(ctx context.Context, song *domain.Song) (*domain.Song, error) {
	out := *song
	out.ID = uuid.NewString()
	if out.Slug == "" {
		out.Slug = util.Slugify(out.Title)
	}
	out.CreatedAt = time.Now()
	out.UpdatedAt = out.CreatedAt

	tagsJSON, err := marshalJSON(out.Tags)
	if err != nil {
		return nil, err
	}
	sectionsJSON, err := marshalJSON(out.Sections)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO songs (id, slug, title, author, song_key, tags, sections,
			video_url, source_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		out.ID, out.Slug, out.Title, out.Author, out.Key, tagsJSON, sectionsJSON,
		out.VideoURL, out.SourceURL, out.CreatedAt, out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert song: %w", err)
	}

	return &out, nil
}

func (r *SongRepository) FindByID(ctx context.Context, id string) (*domain.Song, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *SongRepository) FindBySlug(ctx context.Context, slug string) (*domain.Song, error) {
	return r.findOne(ctx, `WHERE slug = $1`, slug)
}

func (r *SongRepository) findOne(ctx context.Context, where string, arg any) (*domain.Song, error) {
	query := `
		SELECT id, slug, title, author, song_key, tags, sections,
		       video_url, source_url, created_at, updated_at
		FROM songs ` + where + ` LIMIT 1`

	var (
		s            domain.Song
		tagsJSON     []byte
		sectionsJSON []byte
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&s.ID, &s.Slug, &s.Title, &s.Author, &s.Key, &tagsJSON, &sectionsJSON,
		&s.VideoURL, &s.SourceURL, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query song: %w", err)
	}

	if err := json.Unmarshal(tagsJSON, &s.Tags); err != nil {
		r.logger.Warn("Failed to decode song tags", zap.String("song_id", s.ID), zap.Error(err))
	}
	if err := json.Unmarshal(sectionsJSON, &s.Sections); err != nil {
		return nil, fmt.Errorf("failed to decode song sections: %w", err)
	}

	return &s, nil
}

// Search matches songs by title substring, case-insensitive.
func (r *SongRepository) Search(ctx context.Context, q string, limit int) ([]*domain.Song, error) {
	if limit <= 0 {
		limit = 25
	}

	query := `
		SELECT id, slug, title, author, song_key, tags, sections,
		       video_url, source_url, created_at, updated_at
		FROM songs
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY title
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*domain.Song, 0)
	for rows.Next() {
		var (
			s            domain.Song
			tagsJSON     []byte
			sectionsJSON []byte
		)
		if err := rows.Scan(&s.ID, &s.Slug, &s.Title, &s.Author, &s.Key, &tagsJSON, &sectionsJSON,
			&s.VideoURL, &s.SourceURL, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		_ = json.Unmarshal(tagsJSON, &s.Tags)
		if err := json.Unmarshal(sectionsJSON, &s.Sections); err != nil {
			return nil, fmt.Errorf("failed to decode song sections: %w", err)
		}
		songs = append(songs, &s)
	}

	return songs, rows.Err()
}

func (r *SongRepository) UpdateVideoURL(ctx context.Context, id, videoURL string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE songs SET video_url = $1, updated_at = now() WHERE id = $2`,
		videoURL, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update song video: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SongRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM songs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
