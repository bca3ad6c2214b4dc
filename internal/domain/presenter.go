package domain

// LogoPosition anchors the logo inside the projected frame.
type LogoPosition string

const (
	LogoTopLeft     LogoPosition = "top-left"
	LogoTopRight    LogoPosition = "top-right"
	LogoBottomLeft  LogoPosition = "bottom-left"
	LogoBottomRight LogoPosition = "bottom-right"
	LogoCenter      LogoPosition = "center"
)

// LogoConfig is the projector logo placement. A liturgy has one global
// default plus sparse per-slide overrides.
type LogoConfig struct {
	Visible  bool         `json:"visible"`
	Position LogoPosition `json:"position"`
	Scale    float64      `json:"scale"`
	Opacity  float64      `json:"opacity"`
}

// LogoOverride overrides individual logo fields for one slide index.
// Nil fields fall through to the global default.
type LogoOverride struct {
	Visible  *bool         `json:"visible,omitempty"`
	Position *LogoPosition `json:"position,omitempty"`
	Scale    *float64      `json:"scale,omitempty"`
	Opacity  *float64      `json:"opacity,omitempty"`
}

// Resolve merges the override onto the default configuration.
func (o *LogoOverride) Resolve(def LogoConfig) LogoConfig {
	out := def
	if o == nil {
		return out
	}
	if o.Visible != nil {
		out.Visible = *o.Visible
	}
	if o.Position != nil {
		out.Position = *o.Position
	}
	if o.Scale != nil {
		out.Scale = *o.Scale
	}
	if o.Opacity != nil {
		out.Opacity = *o.Opacity
	}
	return out
}

// TextOverlay is a floating caption shown during live presentation, e.g. a
// lower-third with a speaker name or a verse reference.
type TextOverlay struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Position string  `json:"position"`
	FontSize float64 `json:"font_size"`
	Visible  bool    `json:"visible"`
}

// TextOverlayOverride overrides overlay fields for one slide index.
type TextOverlayOverride struct {
	Text    *string `json:"text,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
}

// Resolve merges the override onto the overlay's global definition.
func (o *TextOverlayOverride) Resolve(def TextOverlay) TextOverlay {
	out := def
	if o == nil {
		return out
	}
	if o.Text != nil {
		out.Text = *o.Text
	}
	if o.Visible != nil {
		out.Visible = *o.Visible
	}
	return out
}
