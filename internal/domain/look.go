package domain

// PropDef declares one background decoration in a look template. Text may
// contain {{date}} and {{title}} tokens resolved against the liturgy.
type PropDef struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"` // "banner", "caption", "frame", "texture"
	Text     string `json:"text,omitempty"`
	AssetURL string `json:"asset_url,omitempty"`
	AutoShow bool   `json:"auto_show"`
}

// Look is a declarative template of background props for one element type.
type Look struct {
	Name       string    `json:"name"`
	Background string    `json:"background"`
	Props      []PropDef `json:"props"`
}
