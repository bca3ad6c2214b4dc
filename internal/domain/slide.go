package domain

// TextAlignment positions slide text inside the frame.
type TextAlignment string

const (
	AlignLeft   TextAlignment = "left"
	AlignCenter TextAlignment = "center"
	AlignRight  TextAlignment = "right"
)

// Slide is one projected frame. The presenter never mutates a slide in
// place; temporary edits are applied as an overlay at render time.
type Slide struct {
	ID                string        `json:"id"`
	ElementID         string        `json:"element_id"`
	PrimaryText       string        `json:"primary_text"`
	SecondaryText     string        `json:"secondary_text,omitempty"`
	Subtitle          string        `json:"subtitle,omitempty"`
	ImageURL          string        `json:"image_url,omitempty"`
	VideoURL          string        `json:"video_url,omitempty"`
	Alignment         TextAlignment `json:"alignment,omitempty"`
	IllustrationX     float64       `json:"illustration_x,omitempty"`
	IllustrationY     float64       `json:"illustration_y,omitempty"`
	IllustrationScale float64       `json:"illustration_scale,omitempty"`
}

// SlideContent carries the editable text fields of a slide. Empty fields in a
// temporary edit mean "keep the underlying value".
type SlideContent struct {
	PrimaryText   *string `json:"primary_text,omitempty"`
	SecondaryText *string `json:"secondary_text,omitempty"`
	Subtitle      *string `json:"subtitle,omitempty"`
	ImageURL      *string `json:"image_url,omitempty"`
}

// ApplyTo returns a copy of the slide with the non-nil content fields replaced.
func (c *SlideContent) ApplyTo(s *Slide) *Slide {
	out := *s
	if c.PrimaryText != nil {
		out.PrimaryText = *c.PrimaryText
	}
	if c.SecondaryText != nil {
		out.SecondaryText = *c.SecondaryText
	}
	if c.Subtitle != nil {
		out.Subtitle = *c.Subtitle
	}
	if c.ImageURL != nil {
		out.ImageURL = *c.ImageURL
	}
	return &out
}
