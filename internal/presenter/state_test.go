package presenter

import (
	"fmt"
	"testing"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
)

// newTestSession builds a session with one element per count in sizes, each
// owning that many slides.
func newTestSession(sizes ...int) *Session {
	liturgy := &domain.Liturgy{
		ID:          "lit-1",
		Title:       "Culto de Prueba",
		ServiceDate: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
	}

	var slides []*domain.Slide
	start := 0
	for i, size := range sizes {
		elem := &domain.Element{
			ID:              fmt.Sprintf("elem-%d", i),
			Type:            domain.ElementSong,
			Title:           fmt.Sprintf("Elemento %d", i),
			StartSlideIndex: start,
			EndSlideIndex:   start + size - 1,
			SlideCount:      size,
		}
		liturgy.Elements = append(liturgy.Elements, elem)
		for j := 0; j < size; j++ {
			slides = append(slides, &domain.Slide{
				ID:          fmt.Sprintf("slide-%d-%d", i, j),
				ElementID:   elem.ID,
				PrimaryText: fmt.Sprintf("texto %d.%d", i, j),
			})
		}
		start += size
	}

	return NewSession(liturgy, slides, nil)
}

// checkElementCoverage verifies the elements partition the slide range:
// contiguous, non-overlapping, starting at zero and ending at the last slide.
func checkElementCoverage(t *testing.T, s *Session) {
	t.Helper()
	snap := s.Snapshot()

	next := 0
	for i, e := range snap.Elements {
		if e.StartSlideIndex != next {
			t.Fatalf("element %d starts at %d, want %d", i, e.StartSlideIndex, next)
		}
		if e.SlideCount != e.EndSlideIndex-e.StartSlideIndex+1 {
			t.Fatalf("element %d count %d does not match range [%d,%d]",
				i, e.SlideCount, e.StartSlideIndex, e.EndSlideIndex)
		}
		next = e.EndSlideIndex + 1
	}
	if next != len(snap.Slides) {
		t.Fatalf("elements cover %d slides, want %d", next, len(snap.Slides))
	}
}

func TestNavigationClamps(t *testing.T) {
	s := newTestSession(2, 3)

	s.GoToSlide(99)
	if got := s.Snapshot().CurrentSlide; got != 4 {
		t.Fatalf("CurrentSlide = %d, want 4", got)
	}

	s.GoToSlide(-5)
	if got := s.Snapshot().CurrentSlide; got != 0 {
		t.Fatalf("CurrentSlide = %d, want 0", got)
	}

	s.PrevSlide()
	if got := s.Snapshot().CurrentSlide; got != 0 {
		t.Fatalf("PrevSlide at start moved to %d", got)
	}

	s.LastSlide()
	s.NextSlide()
	if got := s.Snapshot().CurrentSlide; got != 4 {
		t.Fatalf("NextSlide at end moved to %d", got)
	}
}

func TestNavigationTracksElement(t *testing.T) {
	s := newTestSession(2, 3)

	s.GoToSlide(1)
	if got := s.Snapshot().CurrentElement; got != 0 {
		t.Fatalf("CurrentElement = %d, want 0", got)
	}

	s.NextSlide()
	if got := s.Snapshot().CurrentElement; got != 1 {
		t.Fatalf("CurrentElement = %d, want 1", got)
	}

	s.GoToElement(0)
	snap := s.Snapshot()
	if snap.CurrentSlide != 0 || snap.CurrentElement != 0 {
		t.Fatalf("GoToElement(0) landed on slide %d element %d", snap.CurrentSlide, snap.CurrentElement)
	}

	// out-of-range element jump is a no-op
	s.GoToElement(7)
	if got := s.Snapshot().CurrentSlide; got != 0 {
		t.Fatalf("GoToElement(7) moved to slide %d", got)
	}
}

func TestLiveClearsBlackOnlyOnTransition(t *testing.T) {
	s := newTestSession(2)

	s.ToggleBlack()
	s.SetLive(true)
	snap := s.Snapshot()
	if !snap.Live || snap.Black {
		t.Fatalf("going live should clear black: live=%v black=%v", snap.Live, snap.Black)
	}

	s.ToggleBlack()
	s.SetLive(true)
	snap = s.Snapshot()
	if !snap.Black {
		t.Fatal("re-enabling live while already live must not clear black")
	}

	s.SetLive(false)
	if snap = s.Snapshot(); snap.Live {
		t.Fatal("SetLive(false) left session live")
	}
}

func TestTempEditsOverlayWithoutMutating(t *testing.T) {
	s := newTestSession(2)

	edited := "texto editado"
	s.SetTempEdit("slide-0-0", &domain.SlideContent{PrimaryText: &edited})

	snap := s.Snapshot()
	if snap.Slides[0].PrimaryText != edited {
		t.Fatalf("snapshot slide text = %q, want %q", snap.Slides[0].PrimaryText, edited)
	}
	if s.slides[0].PrimaryText != "texto 0.0" {
		t.Fatalf("temp edit mutated the underlying slide: %q", s.slides[0].PrimaryText)
	}

	s.ClearTempEdit("slide-0-0")
	if got := s.Snapshot().Slides[0].PrimaryText; got != "texto 0.0" {
		t.Fatalf("after clear, slide text = %q", got)
	}

	// edits on unknown slides are dropped
	s.SetTempEdit("no-such-slide", &domain.SlideContent{PrimaryText: &edited})
	if len(s.tempEdits) != 0 {
		t.Fatal("temp edit for unknown slide was stored")
	}
}

func TestClearAllTempEdits(t *testing.T) {
	s := newTestSession(3)

	a, b := "uno", "dos"
	s.SetTempEdit("slide-0-0", &domain.SlideContent{PrimaryText: &a})
	s.SetTempEdit("slide-0-1", &domain.SlideContent{PrimaryText: &b})
	s.ClearAllTempEdits()

	snap := s.Snapshot()
	if snap.Slides[0].PrimaryText != "texto 0.0" || snap.Slides[1].PrimaryText != "texto 0.1" {
		t.Fatal("ClearAllTempEdits left edits applied")
	}
}

func TestDuplicateSlideGrowsOwningElement(t *testing.T) {
	s := newTestSession(2, 3)

	s.DuplicateSlide(1)
	snap := s.Snapshot()

	if len(snap.Slides) != 6 {
		t.Fatalf("len(slides) = %d, want 6", len(snap.Slides))
	}
	if snap.Slides[2].PrimaryText != "texto 0.1" {
		t.Fatalf("copy content = %q", snap.Slides[2].PrimaryText)
	}
	if snap.Slides[2].ID == snap.Slides[1].ID {
		t.Fatal("duplicate kept the original slide id")
	}
	if snap.Elements[0].SlideCount != 3 {
		t.Fatalf("owning element count = %d, want 3", snap.Elements[0].SlideCount)
	}
	if snap.Elements[1].StartSlideIndex != 3 {
		t.Fatalf("second element starts at %d, want 3", snap.Elements[1].StartSlideIndex)
	}
	checkElementCoverage(t, s)
}

func TestDeleteSlideShrinksAndDropsEmptyElement(t *testing.T) {
	s := newTestSession(1, 3)

	s.DeleteSlide(0)
	snap := s.Snapshot()

	if len(snap.Elements) != 1 {
		t.Fatalf("emptied element not dropped: %d elements", len(snap.Elements))
	}
	if len(snap.Slides) != 3 {
		t.Fatalf("len(slides) = %d, want 3", len(snap.Slides))
	}
	checkElementCoverage(t, s)
}

func TestDeleteSlideClampsCursor(t *testing.T) {
	s := newTestSession(3)

	s.LastSlide()
	s.DeleteSlide(2)
	snap := s.Snapshot()
	if snap.CurrentSlide != 1 {
		t.Fatalf("cursor = %d after deleting last slide, want 1", snap.CurrentSlide)
	}
}

func TestDuplicateDeleteSequencesKeepCoverage(t *testing.T) {
	s := newTestSession(2, 1, 4)

	s.DuplicateSlide(0)
	s.DuplicateSlide(4)
	s.DeleteSlide(2)
	s.DeleteSlide(2)
	s.DuplicateSlide(6)
	s.DeleteSlide(0)

	checkElementCoverage(t, s)
}

func TestOverlayCapRejectsEleventh(t *testing.T) {
	s := newTestSession(2)

	for i := 0; i < 10; i++ {
		if id := s.AddTextOverlay(domain.TextOverlay{Text: fmt.Sprintf("overlay %d", i)}); id == "" {
			t.Fatalf("overlay %d rejected below the cap", i)
		}
	}
	if id := s.AddTextOverlay(domain.TextOverlay{Text: "uno más"}); id != "" {
		t.Fatalf("eleventh overlay accepted with id %q", id)
	}
	if got := len(s.Snapshot().Overlays); got != 10 {
		t.Fatalf("len(overlays) = %d, want 10", got)
	}
}

func TestRemoveTextOverlayClearsItsOverrides(t *testing.T) {
	s := newTestSession(3)

	id := s.AddTextOverlay(domain.TextOverlay{Text: "predicador", Visible: true})
	hidden := false
	s.SetTextOverlayOverride(1, id, &domain.TextOverlayOverride{Visible: &hidden})

	if got := s.ResolveOverlays(1); len(got) != 1 || got[0].Visible {
		t.Fatalf("override not applied: %+v", got)
	}

	s.RemoveTextOverlay(id)
	if got := s.ResolveOverlays(1); len(got) != 0 {
		t.Fatalf("overlay still resolved after removal: %+v", got)
	}
	if _, overrides := s.OverlayState(); len(overrides) != 0 {
		t.Fatalf("orphan overrides survived removal: %+v", overrides)
	}
}

func TestOverlayOverridesShiftWithSlides(t *testing.T) {
	s := newTestSession(4)

	id := s.AddTextOverlay(domain.TextOverlay{Text: "aviso", Visible: true})
	alt := "aviso especial"
	s.SetTextOverlayOverride(2, id, &domain.TextOverlayOverride{Text: &alt})

	s.DuplicateSlide(0)
	if got := s.ResolveOverlays(3); got[0].Text != alt {
		t.Fatalf("override did not shift on duplicate: %q", got[0].Text)
	}

	s.DeleteSlide(0)
	if got := s.ResolveOverlays(2); got[0].Text != alt {
		t.Fatalf("override did not shift back on delete: %q", got[0].Text)
	}
}

func TestLogoOverrideResolution(t *testing.T) {
	s := newTestSession(3)

	hidden := false
	s.SetLogoOverride(1, &domain.LogoOverride{Visible: &hidden})

	if got := s.ResolveLogo(0); !got.Visible {
		t.Fatal("default logo should be visible")
	}
	if got := s.ResolveLogo(1); got.Visible {
		t.Fatal("per-slide override ignored")
	}

	scale := 0.5
	s.SetLogoDefault(domain.LogoConfig{Visible: true, Position: domain.LogoCenter, Scale: scale, Opacity: 1})
	got := s.ResolveLogo(1)
	if got.Visible || got.Scale != scale {
		t.Fatalf("override should merge onto new default: %+v", got)
	}

	s.ClearLogoOverride(1)
	if got := s.ResolveLogo(1); !got.Visible {
		t.Fatal("cleared override still applied")
	}
}

func TestEmptySessionIsSafe(t *testing.T) {
	liturgy := &domain.Liturgy{ID: "lit-empty", Title: "Vacío", ServiceDate: time.Now()}
	s := NewSession(liturgy, nil, nil)

	s.NextSlide()
	s.LastSlide()
	s.DeleteSlide(0)
	s.DuplicateSlide(0)

	snap := s.Snapshot()
	if snap.CurrentSlide != 0 || snap.CurrentElement != -1 {
		t.Fatalf("empty session cursor = %d/%d", snap.CurrentSlide, snap.CurrentElement)
	}
}

func TestSnapshotBroadcastOnMutation(t *testing.T) {
	s := newTestSession(2)

	var got []Snapshot
	s.OnChange(func(snap Snapshot) {
		got = append(got, snap)
	})

	s.NextSlide()
	s.ToggleBlack()

	if len(got) != 2 {
		t.Fatalf("onChange fired %d times, want 2", len(got))
	}
	if got[0].CurrentSlide != 1 || !got[1].Black {
		t.Fatalf("snapshots out of order: %+v", got)
	}
}
