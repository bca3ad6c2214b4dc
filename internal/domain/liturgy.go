package domain

import "time"

// ElementType identifies the liturgical segment a run of slides belongs to.
type ElementType string

const (
	ElementSong         ElementType = "song"
	ElementPrayer       ElementType = "prayer"
	ElementReading      ElementType = "reading"
	ElementSermon       ElementType = "sermon"
	ElementAnnouncement ElementType = "announcement"
	ElementCommunion    ElementType = "communion"
	ElementOffering     ElementType = "offering"
	ElementWelcome      ElementType = "welcome"
)

// PublicationStatus tracks the editorial state of a liturgy.
type PublicationStatus string

const (
	StatusDraft     PublicationStatus = "draft"
	StatusPublished PublicationStatus = "published"
	StatusArchived  PublicationStatus = "archived"
)

type Liturgy struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	ServiceDate time.Time         `json:"service_date"`
	ServiceType string            `json:"service_type"`
	Status      PublicationStatus `json:"status"`
	Elements    []*Element        `json:"elements"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Element is a contiguous run of slides for one liturgical segment.
// StartSlideIndex/EndSlideIndex are inclusive positions into the liturgy's
// slide sequence; together the elements partition it.
type Element struct {
	ID              string      `json:"id"`
	Type            ElementType `json:"type"`
	Title           string      `json:"title"`
	StartSlideIndex int         `json:"start_slide_index"`
	EndSlideIndex   int         `json:"end_slide_index"`
	SlideCount      int         `json:"slide_count"`
}

// Contains reports whether the slide index falls inside the element's range.
func (e *Element) Contains(slideIndex int) bool {
	return slideIndex >= e.StartSlideIndex && slideIndex <= e.EndSlideIndex
}
