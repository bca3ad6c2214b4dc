package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/casaiglesia/casa-server/pkg/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type PostgresService struct {
	db     *sql.DB
	logger *zap.Logger
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func NewPostgresService(cfg PostgresConfig, logger *zap.Logger) (*PostgresService, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewStorageError("failed to connect to PostgreSQL", "", "ping", err)
	}

	logger.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)

	return &PostgresService{
		db:     db,
		logger: logger,
	}, nil
}

func (ps *PostgresService) GetDB() *sql.DB {
	return ps.db
}

func (ps *PostgresService) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}

func (ps *PostgresService) Ping(ctx context.Context) error {
	return ps.db.PingContext(ctx)
}

// EnsureSchema creates the tables the server depends on if they are missing.
// Idempotent; runs at startup before any repository is used.
func (ps *PostgresService) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS liturgies (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			service_date TIMESTAMPTZ NOT NULL,
			service_type TEXT NOT NULL DEFAULT 'sunday',
			status TEXT NOT NULL DEFAULT 'draft',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS elements (
			id TEXT PRIMARY KEY,
			liturgy_id TEXT NOT NULL REFERENCES liturgies(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			position INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS slides (
			id TEXT PRIMARY KEY,
			element_id TEXT NOT NULL REFERENCES elements(id) ON DELETE CASCADE,
			position INT NOT NULL,
			primary_text TEXT NOT NULL DEFAULT '',
			secondary_text TEXT NOT NULL DEFAULT '',
			subtitle TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			video_url TEXT NOT NULL DEFAULT '',
			alignment TEXT NOT NULL DEFAULT 'center',
			illustration_x DOUBLE PRECISION NOT NULL DEFAULT 0,
			illustration_y DOUBLE PRECISION NOT NULL DEFAULT 0,
			illustration_scale DOUBLE PRECISION NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS songs (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			song_key TEXT NOT NULL DEFAULT '',
			tags JSONB NOT NULL DEFAULT '[]',
			sections JSONB NOT NULL DEFAULT '[]',
			video_url TEXT NOT NULL DEFAULT '',
			source_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS volunteers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			webhook_url TEXT NOT NULL DEFAULT '',
			roles JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS assignments (
			id TEXT PRIMARY KEY,
			volunteer_id TEXT NOT NULL REFERENCES volunteers(id) ON DELETE CASCADE,
			liturgy_id TEXT NOT NULL REFERENCES liturgies(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			service_date TIMESTAMPTZ NOT NULL,
			confirmed BOOLEAN NOT NULL DEFAULT false
		)`,
		`CREATE TABLE IF NOT EXISTS budget_categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			yearly_budget NUMERIC(12,2) NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS budget_entries (
			id TEXT PRIMARY KEY,
			category_id TEXT NOT NULL REFERENCES budget_categories(id),
			kind TEXT NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			concept TEXT NOT NULL DEFAULT '',
			entry_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS participants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			is_host BOOLEAN NOT NULL DEFAULT false,
			host_capacity INT NOT NULL DEFAULT 0,
			dietary_notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS dinner_rounds (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			matched_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS dinner_groups (
			id TEXT PRIMARY KEY,
			round_id TEXT NOT NULL REFERENCES dinner_rounds(id) ON DELETE CASCADE,
			host_id TEXT NOT NULL REFERENCES participants(id),
			member_ids JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_elements_liturgy ON elements(liturgy_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_slides_element ON slides(element_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_date ON assignments(service_date)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_date ON budget_entries(entry_date)`,
	}

	for _, stmt := range statements {
		if _, err := ps.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	ps.logger.Info("Database schema ensured", zap.Int("statements", len(statements)))
	return nil
}
