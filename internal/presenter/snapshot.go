package presenter

import (
	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/casaiglesia/casa-server/internal/domain"
)

// Snapshot is the resolved view broadcast to projector clients: slides with
// temporary edits applied, the cursor, flags, and the per-current-slide logo,
// overlay, and scene resolution.
type Snapshot struct {
	LiturgyID      string               `json:"liturgy_id"`
	Slides         []*domain.Slide      `json:"slides"`
	Elements       []*domain.Element    `json:"elements"`
	CurrentSlide   int                  `json:"current_slide"`
	CurrentElement int                  `json:"current_element"`
	Live           bool                 `json:"live"`
	Black          bool                 `json:"black"`
	Logo           domain.LogoConfig    `json:"logo"`
	Overlays       []domain.TextOverlay `json:"overlays"`
	Scene          SceneState           `json:"scene"`
}

// Snapshot returns the current resolved view.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	slides := make([]*domain.Slide, len(s.slides))
	for i, slide := range s.slides {
		if edit, ok := s.tempEdits[slide.ID]; ok {
			slides[i] = edit.ApplyTo(slide)
		} else {
			slides[i] = slide
		}
	}

	elements := make([]*domain.Element, len(s.elements))
	for i, e := range s.elements {
		copyElem := *e
		elements[i] = &copyElem
	}

	perOverlay := s.overlayOverrides[s.currentSlide]
	overlays := make([]domain.TextOverlay, 0, len(s.overlays))
	for _, overlay := range s.overlays {
		overlays = append(overlays, perOverlay[overlay.ID].Resolve(overlay))
	}

	scene := s.scene
	scene.Armed = append([]string(nil), s.scene.Armed...)
	scene.Active = append([]string(nil), s.scene.Active...)

	return Snapshot{
		LiturgyID:      s.liturgy.ID,
		Slides:         slides,
		Elements:       elements,
		CurrentSlide:   s.currentSlide,
		CurrentElement: s.currentElement,
		Live:           s.live,
		Black:          s.black,
		Logo:           s.logoOverrides[s.currentSlide].Resolve(s.logoDefault),
		Overlays:       overlays,
		Scene:          scene,
	}
}

// LogoState reports the global default and the sparse override map, used by
// the preference mirror.
func (s *Session) LogoState() (domain.LogoConfig, map[int]*domain.LogoOverride) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	overrides := make(map[int]*domain.LogoOverride, len(s.logoOverrides))
	for idx, ov := range s.logoOverrides {
		overrides[idx] = ov
	}
	return s.logoDefault, overrides
}

// OverlayState reports the overlay definitions and their per-slide overrides.
func (s *Session) OverlayState() ([]domain.TextOverlay, map[int]map[string]*domain.TextOverlayOverride) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	overlays := append([]domain.TextOverlay(nil), s.overlays...)
	overrides := make(map[int]map[string]*domain.TextOverlayOverride, len(s.overlayOverrides))
	for idx, perOverlay := range s.overlayOverrides {
		inner := make(map[string]*domain.TextOverlayOverride, len(perOverlay))
		for id, ov := range perOverlay {
			inner[id] = ov
		}
		overrides[idx] = inner
	}
	return overlays, overrides
}

// seedPreferences restores a mirrored logo/overlay configuration. Used when a
// session is created and the operator's prior preferences are still cached.
func (s *Session) seedPreferences(prefs *Preferences) {
	if prefs == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if prefs.LogoDefault != nil {
		s.logoDefault = *prefs.LogoDefault
	}
	if len(prefs.Overlays) > 0 && len(prefs.Overlays) <= constants.PresenterLimits.MaxTextOverlays {
		s.overlays = append([]domain.TextOverlay(nil), prefs.Overlays...)
	}
}
