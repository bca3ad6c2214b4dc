package presenter

import (
	"sync"

	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/util"
	"github.com/google/uuid"
)

// Session is the authoritative live-presentation state for one liturgy.
// Navigation and override operations clamp or no-op on out-of-range input;
// none of them touch storage, so none of them can fail.
type Session struct {
	mu sync.RWMutex

	liturgy  *domain.Liturgy
	slides   []*domain.Slide
	elements []*domain.Element

	currentSlide     int
	currentElement   int
	currentElementID string
	live             bool
	black            bool

	tempEdits map[string]*domain.SlideContent

	logoDefault   domain.LogoConfig
	logoOverrides map[int]*domain.LogoOverride

	overlays         []domain.TextOverlay
	overlayOverrides map[int]map[string]*domain.TextOverlayOverride

	looks *LookRegistry
	scene SceneState

	// onChange is invoked (outside the lock) after every mutation.
	onChange func(Snapshot)
}

func NewSession(liturgy *domain.Liturgy, slides []*domain.Slide, looks *LookRegistry) *Session {
	if looks == nil {
		looks = DefaultLooks()
	}

	s := &Session{
		liturgy:  liturgy,
		slides:   slides,
		elements: liturgy.Elements,
		tempEdits: make(map[string]*domain.SlideContent),
		logoDefault: domain.LogoConfig{
			Visible:  true,
			Position: domain.LogoBottomRight,
			Scale:    1,
			Opacity:  1,
		},
		logoOverrides:    make(map[int]*domain.LogoOverride),
		overlayOverrides: make(map[int]map[string]*domain.TextOverlayOverride),
		looks:            looks,
	}
	s.currentElement = s.elementAt(0)
	s.currentElementID = s.elementIDAt(s.currentElement)
	s.scene = s.looks.Resolve(s.elementTypeAt(s.currentElement), liturgy)
	return s
}

// OnChange registers the snapshot broadcast hook. One consumer (the hub).
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// --- navigation ---

func (s *Session) GoToSlide(index int) {
	s.mutate(func() {
		s.setSlide(index)
	})
}

func (s *Session) NextSlide() {
	s.mutate(func() {
		s.setSlide(s.currentSlide + 1)
	})
}

func (s *Session) PrevSlide() {
	s.mutate(func() {
		s.setSlide(s.currentSlide - 1)
	})
}

func (s *Session) FirstSlide() {
	s.mutate(func() {
		s.setSlide(0)
	})
}

func (s *Session) LastSlide() {
	s.mutate(func() {
		s.setSlide(len(s.slides) - 1)
	})
}

// GoToElement jumps to the first slide of the element at the given position.
func (s *Session) GoToElement(index int) {
	s.mutate(func() {
		if index < 0 || index >= len(s.elements) {
			return
		}
		s.setSlide(s.elements[index].StartSlideIndex)
	})
}

// setSlide clamps, moves, and re-resolves the scene when the element changes.
// The change check compares element IDs, not positions: after a deletion the
// successor element can inherit the old position while being a different
// element. Must be called with the lock held.
func (s *Session) setSlide(index int) {
	if len(s.slides) == 0 {
		s.currentSlide = 0
		s.currentElement = -1
		s.currentElementID = ""
		return
	}

	s.currentSlide = util.Clamp(index, 0, len(s.slides)-1)
	element := s.elementAt(s.currentSlide)
	if id := s.elementIDAt(element); id != s.currentElementID {
		s.currentElement = element
		s.currentElementID = id
		s.scene = s.looks.Resolve(s.elementTypeAt(element), s.liturgy)
		return
	}
	s.currentElement = element
}

// elementAt finds the element containing the slide index by a linear range
// scan. Returns -1 when no element covers it.
func (s *Session) elementAt(slideIndex int) int {
	for i, e := range s.elements {
		if e.Contains(slideIndex) {
			return i
		}
	}
	return -1
}

func (s *Session) elementIDAt(index int) string {
	if index < 0 || index >= len(s.elements) {
		return ""
	}
	return s.elements[index].ID
}

func (s *Session) elementTypeAt(index int) domain.ElementType {
	if index < 0 || index >= len(s.elements) {
		return ""
	}
	return s.elements[index].Type
}

// --- live / black ---

// SetLive switches the projector output on or off. Going live from an off
// state clears the black screen; re-enabling while already live leaves it
// untouched.
func (s *Session) SetLive(on bool) {
	s.mutate(func() {
		if on && !s.live {
			s.black = false
		}
		s.live = on
	})
}

func (s *Session) ToggleBlack() {
	s.mutate(func() {
		s.black = !s.black
	})
}

// --- temporary edits ---

func (s *Session) SetTempEdit(slideID string, content *domain.SlideContent) {
	s.mutate(func() {
		if content == nil || !s.hasSlide(slideID) {
			return
		}
		s.tempEdits[slideID] = content
	})
}

func (s *Session) ClearTempEdit(slideID string) {
	s.mutate(func() {
		delete(s.tempEdits, slideID)
	})
}

func (s *Session) ClearAllTempEdits() {
	s.mutate(func() {
		s.tempEdits = make(map[string]*domain.SlideContent)
	})
}

func (s *Session) hasSlide(slideID string) bool {
	for _, slide := range s.slides {
		if slide.ID == slideID {
			return true
		}
	}
	return false
}

// --- logo ---

func (s *Session) SetLogoDefault(cfg domain.LogoConfig) {
	s.mutate(func() {
		s.logoDefault = cfg
	})
}

func (s *Session) SetLogoOverride(slideIndex int, ov *domain.LogoOverride) {
	s.mutate(func() {
		if slideIndex < 0 || slideIndex >= len(s.slides) || ov == nil {
			return
		}
		s.logoOverrides[slideIndex] = ov
	})
}

func (s *Session) ClearLogoOverride(slideIndex int) {
	s.mutate(func() {
		delete(s.logoOverrides, slideIndex)
	})
}

// ResolveLogo merges any per-slide override onto the default configuration.
func (s *Session) ResolveLogo(slideIndex int) domain.LogoConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logoOverrides[slideIndex].Resolve(s.logoDefault)
}

// --- text overlays ---

// AddTextOverlay registers a floating caption. Returns the overlay id, or ""
// when the cap is reached and the add is ignored.
func (s *Session) AddTextOverlay(overlay domain.TextOverlay) string {
	var id string
	s.mutate(func() {
		if len(s.overlays) >= constants.PresenterLimits.MaxTextOverlays {
			return
		}
		if overlay.ID == "" {
			overlay.ID = uuid.NewString()
		}
		s.overlays = append(s.overlays, overlay)
		id = overlay.ID
	})
	return id
}

func (s *Session) UpdateTextOverlay(id string, overlay domain.TextOverlay) {
	s.mutate(func() {
		for i := range s.overlays {
			if s.overlays[i].ID == id {
				overlay.ID = id
				s.overlays[i] = overlay
				return
			}
		}
	})
}

// RemoveTextOverlay deletes the overlay and every per-slide override that
// referenced it.
func (s *Session) RemoveTextOverlay(id string) {
	s.mutate(func() {
		for i := range s.overlays {
			if s.overlays[i].ID == id {
				s.overlays = append(s.overlays[:i], s.overlays[i+1:]...)
				break
			}
		}
		for slideIndex, perOverlay := range s.overlayOverrides {
			delete(perOverlay, id)
			if len(perOverlay) == 0 {
				delete(s.overlayOverrides, slideIndex)
			}
		}
	})
}

func (s *Session) SetTextOverlayOverride(slideIndex int, overlayID string, ov *domain.TextOverlayOverride) {
	s.mutate(func() {
		if slideIndex < 0 || slideIndex >= len(s.slides) || ov == nil {
			return
		}
		if !s.hasOverlay(overlayID) {
			return
		}
		perOverlay := s.overlayOverrides[slideIndex]
		if perOverlay == nil {
			perOverlay = make(map[string]*domain.TextOverlayOverride)
			s.overlayOverrides[slideIndex] = perOverlay
		}
		perOverlay[overlayID] = ov
	})
}

func (s *Session) hasOverlay(id string) bool {
	for i := range s.overlays {
		if s.overlays[i].ID == id {
			return true
		}
	}
	return false
}

// ResolveOverlays returns the overlays for one slide with per-slide override
// fields merged onto each overlay's definition.
func (s *Session) ResolveOverlays(slideIndex int) []domain.TextOverlay {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perOverlay := s.overlayOverrides[slideIndex]
	resolved := make([]domain.TextOverlay, 0, len(s.overlays))
	for _, overlay := range s.overlays {
		resolved = append(resolved, perOverlay[overlay.ID].Resolve(overlay))
	}
	return resolved
}

// --- slide mutation ---

// DuplicateSlide inserts a copy of the slide at index directly after it. The
// containing element grows by one; every later element and every index-keyed
// override above the insertion point shifts up.
func (s *Session) DuplicateSlide(index int) {
	s.mutate(func() {
		if index < 0 || index >= len(s.slides) {
			return
		}

		copySlide := *s.slides[index]
		copySlide.ID = uuid.NewString()

		s.slides = append(s.slides, nil)
		copy(s.slides[index+2:], s.slides[index+1:])
		s.slides[index+1] = &copySlide

		owner := s.elementAt(index)
		for i, e := range s.elements {
			switch {
			case i == owner:
				e.EndSlideIndex++
				e.SlideCount++
			case e.StartSlideIndex > index:
				e.StartSlideIndex++
				e.EndSlideIndex++
			}
		}

		s.logoOverrides = shiftLogoOverrides(s.logoOverrides, index, +1)
		s.overlayOverrides = shiftOverlayOverrides(s.overlayOverrides, index, +1)

		if s.currentSlide > index {
			s.currentSlide++
		}
		s.setSlide(s.currentSlide)
	})
}

// DeleteSlide removes the slide at index. The containing element shrinks and
// is dropped when emptied; later ranges and overrides shift down; the cursor
// clamps back into range.
func (s *Session) DeleteSlide(index int) {
	s.mutate(func() {
		if index < 0 || index >= len(s.slides) {
			return
		}

		deletedID := s.slides[index].ID
		s.slides = append(s.slides[:index], s.slides[index+1:]...)
		delete(s.tempEdits, deletedID)

		owner := s.elementAt(index)
		// elementAt scans ranges that still include the removed index
		kept := s.elements[:0]
		for i, e := range s.elements {
			switch {
			case i == owner:
				e.EndSlideIndex--
				e.SlideCount--
				if e.SlideCount <= 0 {
					continue
				}
			case e.StartSlideIndex > index:
				e.StartSlideIndex--
				e.EndSlideIndex--
			}
			kept = append(kept, e)
		}
		s.elements = kept

		delete(s.logoOverrides, index)
		s.logoOverrides = shiftLogoOverrides(s.logoOverrides, index, -1)
		delete(s.overlayOverrides, index)
		s.overlayOverrides = shiftOverlayOverrides(s.overlayOverrides, index, -1)

		if s.currentSlide > index {
			s.currentSlide--
		}
		s.setSlide(s.currentSlide)
	})
}

// shiftLogoOverrides moves index-keyed overrides above pivot by delta.
func shiftLogoOverrides(m map[int]*domain.LogoOverride, pivot, delta int) map[int]*domain.LogoOverride {
	out := make(map[int]*domain.LogoOverride, len(m))
	for idx, ov := range m {
		if idx > pivot {
			out[idx+delta] = ov
		} else {
			out[idx] = ov
		}
	}
	return out
}

func shiftOverlayOverrides(m map[int]map[string]*domain.TextOverlayOverride, pivot, delta int) map[int]map[string]*domain.TextOverlayOverride {
	out := make(map[int]map[string]*domain.TextOverlayOverride, len(m))
	for idx, ov := range m {
		if idx > pivot {
			out[idx+delta] = ov
		} else {
			out[idx] = ov
		}
	}
	return out
}

// --- scene props ---

// ShowProp moves a prop from armed to active.
func (s *Session) ShowProp(propID string) {
	s.mutate(func() {
		s.scene.show(propID)
	})
}

// HideProp moves a prop from active back to armed.
func (s *Session) HideProp(propID string) {
	s.mutate(func() {
		s.scene.hide(propID)
	})
}

// HideAllProps re-arms every active prop.
func (s *Session) HideAllProps() {
	s.mutate(func() {
		s.scene.hideAll()
	})
}

// mutate applies fn under the lock and publishes a snapshot afterwards.
func (s *Session) mutate(fn func()) {
	s.mu.Lock()
	fn()
	var (
		snap   Snapshot
		notify func(Snapshot)
	)
	if s.onChange != nil {
		snap = s.snapshotLocked()
		notify = s.onChange
	}
	s.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}
