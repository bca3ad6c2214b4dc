package app

import (
	"context"
	"fmt"

	"github.com/casaiglesia/casa-server/internal/config"
	"github.com/casaiglesia/casa-server/internal/presenter"
	"github.com/casaiglesia/casa-server/internal/server"
	"github.com/casaiglesia/casa-server/internal/service"
	"github.com/casaiglesia/casa-server/internal/service/ai"
	"github.com/casaiglesia/casa-server/internal/service/cache"
	"github.com/casaiglesia/casa-server/internal/service/database"
	"github.com/casaiglesia/casa-server/internal/service/matching"
	"github.com/casaiglesia/casa-server/internal/service/media"
	"github.com/casaiglesia/casa-server/internal/service/notification"
	"github.com/casaiglesia/casa-server/internal/service/songimport"
	"go.uber.org/zap"
)

// Container bundles the assembled services and the HTTP server built on them.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Server    *server.Server
	Reminders *notification.ReminderService

	closers []func()
}

// Close tears down infrastructure connections in reverse build order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles all infrastructure services and registers every HTTP
// handler on the server router. All heavy-weight initialization (DB, cache,
// AI clients) happens here so main stays focused on lifecycle.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Cache and database
	cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache service: %w", err)
	}
	closers = append(closers, func() {
		_ = cacheSvc.Close()
	})

	postgresSvc, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres service: %w", err)
	}
	closers = append(closers, func() {
		_ = postgresSvc.Close()
	})

	if err := postgresSvc.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	// Repositories
	liturgyRepo := service.NewLiturgyRepository(postgresSvc, logger)
	songRepo := service.NewSongRepository(postgresSvc, logger)
	volunteerRepo := service.NewVolunteerRepository(postgresSvc, logger)
	financeRepo := service.NewFinanceRepository(postgresSvc, logger)
	dinnerRepo := service.NewDinnerRepository(postgresSvc, logger)

	// AI stack (optional; the routes answer 503 without a key)
	var (
		modelManager    *ai.ModelManager
		illustrationSvc *ai.IllustrationService
	)
	if cfg.Gemini.APIKey != "" {
		mm, mErr := ai.NewModelManager(ctx, ai.ModelManagerConfig{
			GeminiAPIKey:   cfg.Gemini.APIKey,
			OpenAIAPIKey:   cfg.OpenAI.APIKey,
			EnableFallback: cfg.OpenAI.EnableFallback,
		}, logger)
		if mErr != nil {
			logger.Warn("Failed to initialize AI model manager (optional feature)", zap.Error(mErr))
		} else {
			modelManager = mm
			illustrationSvc = ai.NewIllustrationService(modelManager, cfg.Gemini.ImageModel, logger)
		}
	}

	// Hymnal importer (optional)
	var importer *songimport.Importer
	if cfg.Hymnal.BaseURL != "" {
		importer = songimport.NewImporter(cfg.Hymnal.BaseURL, cacheSvc, logger)
	}

	// YouTube search (optional)
	var videoSearch *media.VideoSearchService
	if cfg.YouTube.APIKey != "" {
		vs, vErr := media.NewVideoSearchService(cfg.YouTube.APIKey, cacheSvc, logger)
		if vErr != nil {
			logger.Warn("Failed to initialize YouTube search (optional feature)", zap.Error(vErr))
		} else {
			videoSearch = vs
		}
	}

	// Live presentation
	hub := presenter.NewHub(logger)
	manager := presenter.NewManager(liturgyRepo, cacheSvc, hub, logger)

	// Volunteer reminders
	reminders := notification.NewReminderService(
		volunteerRepo,
		cacheSvc,
		cfg.Notification.AdvanceHours,
		cfg.Notification.CheckInterval,
		logger,
	)

	// HTTP surface
	srv := server.New(cfg.Server.Host, cfg.Server.Port, logger)
	router := srv.Router()

	server.NewLiturgyHandler(liturgyRepo, logger).Register(router)
	server.NewPresenterHandler(manager, hub, logger).Register(router)
	server.NewSongHandler(songRepo, songImporterOrNil(importer), videoSearcherOrNil(videoSearch), logger).Register(router)
	server.NewVolunteerHandler(volunteerRepo, logger).Register(router)
	server.NewFinanceHandler(financeRepo, logger).Register(router)
	server.NewDinnerHandler(dinnerRepo, matching.NewMatcher(logger), logger).Register(router)
	server.NewIllustrationHandler(illustrationSvc, logger).Register(router)
	server.NewStatusHandler(aiStatusOrNil(modelManager), quotaSourceOrNil(videoSearch), logger).Register(router)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Server:    srv,
		Reminders: reminders,
		closers:   closers,
	}, nil
}

// A nil *Importer stored in a non-nil interface would defeat the handler's
// nil check, so the conversion happens only for live values.
func songImporterOrNil(importer *songimport.Importer) server.SongImporter {
	if importer == nil {
		return nil
	}
	return importer
}

func videoSearcherOrNil(videoSearch *media.VideoSearchService) server.VideoSearcher {
	if videoSearch == nil {
		return nil
	}
	return videoSearch
}

func aiStatusOrNil(mm *ai.ModelManager) server.AIStatusSource {
	if mm == nil {
		return nil
	}
	return mm
}

func quotaSourceOrNil(videoSearch *media.VideoSearchService) server.QuotaStatusSource {
	if videoSearch == nil {
		return nil
	}
	return videoSearch
}
