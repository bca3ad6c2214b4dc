package presenter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/casaiglesia/casa-server/internal/domain"
	"go.uber.org/zap"
)

const prefsKeyPrefix = "presenter:prefs:"

// Preferences is the logo/overlay configuration mirrored to Redis. The mirror
// is a convenience cache, not a source of truth: writes are fire-and-forget
// and a miss just means defaults.
type Preferences struct {
	LogoDefault *domain.LogoConfig   `json:"logo_default,omitempty"`
	Overlays    []domain.TextOverlay `json:"overlays,omitempty"`
}

// LiturgyLoader provides the data a session is seeded from.
type LiturgyLoader interface {
	FindByID(ctx context.Context, id string) (*domain.Liturgy, error)
	FindSlides(ctx context.Context, liturgyID string) ([]*domain.Slide, error)
}

// PreferenceStore holds the mirrored preferences. The Redis cache service
// satisfies it.
type PreferenceStore interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Manager owns the live sessions, one per liturgy.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	loader LiturgyLoader
	cache  PreferenceStore
	hub    *Hub
	looks  *LookRegistry
	logger *zap.Logger
}

func NewManager(loader LiturgyLoader, prefs PreferenceStore, hub *Hub, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		loader:   loader,
		cache:    prefs,
		hub:      hub,
		looks:    DefaultLooks(),
		logger:   logger,
	}
}

// Session returns the live session for a liturgy, creating it on first use.
func (m *Manager) Session(ctx context.Context, liturgyID string) (*Session, error) {
	m.mu.Lock()
	if session, ok := m.sessions[liturgyID]; ok {
		m.mu.Unlock()
		return session, nil
	}
	m.mu.Unlock()

	liturgy, err := m.loader.FindByID(ctx, liturgyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load liturgy for session: %w", err)
	}
	if liturgy == nil {
		return nil, nil
	}

	slides, err := m.loader.FindSlides(ctx, liturgyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load slides for session: %w", err)
	}

	session := NewSession(liturgy, slides, m.looks)
	session.seedPreferences(m.loadPreferences(ctx, liturgyID))
	session.OnChange(func(snap Snapshot) {
		m.hub.Broadcast(liturgyID, snap)
		m.mirrorPreferences(liturgyID, session)
	})

	m.mu.Lock()
	// another request may have raced session creation
	if existing, ok := m.sessions[liturgyID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[liturgyID] = session
	m.mu.Unlock()

	m.logger.Info("Presenter session created",
		zap.String("liturgy_id", liturgyID),
		zap.Int("slides", len(slides)),
		zap.Int("elements", len(liturgy.Elements)),
	)

	return session, nil
}

// End drops the session; a later request starts fresh from storage.
func (m *Manager) End(liturgyID string) {
	m.mu.Lock()
	_, existed := m.sessions[liturgyID]
	delete(m.sessions, liturgyID)
	m.mu.Unlock()

	if existed {
		m.hub.CloseTopic(liturgyID)
		m.logger.Info("Presenter session ended", zap.String("liturgy_id", liturgyID))
	}
}

func (m *Manager) loadPreferences(ctx context.Context, liturgyID string) *Preferences {
	var prefs Preferences
	if err := m.cache.Get(ctx, prefsKeyPrefix+liturgyID, &prefs); err != nil {
		m.logger.Warn("Failed to load presenter preferences",
			zap.String("liturgy_id", liturgyID), zap.Error(err))
		return nil
	}
	if prefs.LogoDefault == nil && len(prefs.Overlays) == 0 {
		return nil
	}
	return &prefs
}

// mirrorPreferences writes the current logo/overlay configuration to Redis.
// Failures are logged and ignored.
func (m *Manager) mirrorPreferences(liturgyID string, session *Session) {
	logoDefault, _ := session.LogoState()
	overlays, _ := session.OverlayState()

	prefs := Preferences{
		LogoDefault: &logoDefault,
		Overlays:    overlays,
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.RedisConfig.ReadyTimeout)
	defer cancel()

	if err := m.cache.Set(ctx, prefsKeyPrefix+liturgyID, prefs, constants.CacheTTL.PresenterPrefs); err != nil {
		m.logger.Warn("Failed to mirror presenter preferences",
			zap.String("liturgy_id", liturgyID), zap.Error(err))
	}
}
