package presenter

import (
	"testing"
	"time"

	"github.com/casaiglesia/casa-server/internal/domain"
)

func testLookRegistry() *LookRegistry {
	return NewLookRegistry(map[domain.ElementType]domain.Look{
		domain.ElementWelcome: {
			Name:       "bienvenida",
			Background: "amber",
			Props: []domain.PropDef{
				{ID: "title", Kind: "banner", Text: "{{title}}", AutoShow: true},
				{ID: "date", Kind: "caption", Text: "{{date}}", AutoShow: true},
				{ID: "verse", Kind: "caption", Text: "Bienvenidos"},
			},
		},
	})
}

func testLiturgy() *domain.Liturgy {
	return &domain.Liturgy{
		ID:    "lit-1",
		Title: "Primer Domingo",
		// a Sunday
		ServiceDate: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
	}
}

func TestResolveSubstitutesTokens(t *testing.T) {
	scene := testLookRegistry().Resolve(domain.ElementWelcome, testLiturgy())

	if scene.Look.Props[0].Text != "Primer Domingo" {
		t.Fatalf("title prop = %q", scene.Look.Props[0].Text)
	}
	if want := "domingo 1 de marzo de 2026"; scene.Look.Props[1].Text != want {
		t.Fatalf("date prop = %q, want %q", scene.Look.Props[1].Text, want)
	}
}

func TestResolveSplitsPropsByVisibility(t *testing.T) {
	scene := testLookRegistry().Resolve(domain.ElementWelcome, testLiturgy())

	if len(scene.Active) != 2 || scene.Active[0] != "title" || scene.Active[1] != "date" {
		t.Fatalf("active = %v", scene.Active)
	}
	if len(scene.Armed) != 1 || scene.Armed[0] != "verse" {
		t.Fatalf("armed = %v", scene.Armed)
	}
}

func TestResolveUnknownTypeIsEmpty(t *testing.T) {
	scene := testLookRegistry().Resolve(domain.ElementSermon, testLiturgy())

	if scene.Look.Name != "" || len(scene.Armed) != 0 || len(scene.Active) != 0 {
		t.Fatalf("unknown element type resolved to %+v", scene)
	}
}

func TestShowHideProps(t *testing.T) {
	scene := testLookRegistry().Resolve(domain.ElementWelcome, testLiturgy())

	scene.show("verse")
	if len(scene.Armed) != 0 || len(scene.Active) != 3 {
		t.Fatalf("after show: armed=%v active=%v", scene.Armed, scene.Active)
	}

	scene.hide("verse")
	if len(scene.Active) != 2 || scene.Armed[0] != "verse" {
		t.Fatalf("after hide: armed=%v active=%v", scene.Armed, scene.Active)
	}

	// unknown ids are ignored
	scene.show("nope")
	scene.hide("nope")
	if len(scene.Armed) != 1 || len(scene.Active) != 2 {
		t.Fatalf("unknown prop id moved state: armed=%v active=%v", scene.Armed, scene.Active)
	}
}

func TestHideAllRearmsEverything(t *testing.T) {
	scene := testLookRegistry().Resolve(domain.ElementWelcome, testLiturgy())

	scene.show("verse")
	scene.hideAll()

	if len(scene.Active) != 0 {
		t.Fatalf("active not emptied: %v", scene.Active)
	}
	if len(scene.Armed) != 3 {
		t.Fatalf("armed = %v, want all three props", scene.Armed)
	}
}

func TestSessionSceneFollowsElement(t *testing.T) {
	liturgy := testLiturgy()
	liturgy.Elements = []*domain.Element{
		{ID: "e0", Type: domain.ElementWelcome, StartSlideIndex: 0, EndSlideIndex: 0, SlideCount: 1},
		{ID: "e1", Type: domain.ElementSong, StartSlideIndex: 1, EndSlideIndex: 1, SlideCount: 1},
	}
	slides := []*domain.Slide{
		{ID: "s0", ElementID: "e0"},
		{ID: "s1", ElementID: "e1"},
	}
	s := NewSession(liturgy, slides, testLookRegistry())

	if got := s.Snapshot().Scene.Look.Name; got != "bienvenida" {
		t.Fatalf("initial scene = %q", got)
	}

	s.ShowProp("verse")
	s.NextSlide()
	if got := s.Snapshot().Scene; got.Look.Name != "" || len(got.Active) != 0 {
		t.Fatalf("scene not re-resolved on element change: %+v", got)
	}

	// coming back reloads the template, so manual prop state resets
	s.PrevSlide()
	scene := s.Snapshot().Scene
	if scene.Look.Name != "bienvenida" {
		t.Fatalf("scene = %q after returning", scene.Look.Name)
	}
	if len(scene.Armed) != 1 || scene.Armed[0] != "verse" {
		t.Fatalf("armed = %v, want [verse]", scene.Armed)
	}
}

// Deleting the only slide of the current element hands its position to the
// successor element; the scene must follow the successor's type even though
// the element index stays the same.
func TestDeleteSlideReResolvesInheritedPosition(t *testing.T) {
	liturgy := testLiturgy()
	liturgy.Elements = []*domain.Element{
		{ID: "e0", Type: domain.ElementPrayer, StartSlideIndex: 0, EndSlideIndex: 0, SlideCount: 1},
		{ID: "e1", Type: domain.ElementSong, StartSlideIndex: 1, EndSlideIndex: 2, SlideCount: 2},
	}
	slides := []*domain.Slide{
		{ID: "s0", ElementID: "e0"},
		{ID: "s1", ElementID: "e1"},
		{ID: "s2", ElementID: "e1"},
	}
	s := NewSession(liturgy, slides, nil)

	if got := s.Snapshot().Scene.Look.Name; got != "oración" {
		t.Fatalf("initial scene = %q, want %q", got, "oración")
	}

	s.DeleteSlide(0)

	snap := s.Snapshot()
	if snap.CurrentElement != 0 {
		t.Fatalf("current element = %d, want 0", snap.CurrentElement)
	}
	if got := snap.Elements[snap.CurrentElement].Type; got != domain.ElementSong {
		t.Fatalf("element at cursor = %q, want %q", got, domain.ElementSong)
	}
	if got := snap.Scene.Look.Name; got != "alabanza" {
		t.Fatalf("scene = %q, want %q for the inherited position", got, "alabanza")
	}
}
