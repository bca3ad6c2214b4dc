package presenter

import "github.com/casaiglesia/casa-server/internal/domain"

// DefaultLooks returns the built-in look templates, one per liturgical
// element type. Prop text may carry {{date}} and {{title}} tokens.
func DefaultLooks() *LookRegistry {
	return NewLookRegistry(map[domain.ElementType]domain.Look{
		domain.ElementWelcome: {
			Name:       "bienvenida",
			Background: "amber-gradient",
			Props: []domain.PropDef{
				{ID: "welcome-title", Kind: "banner", Text: "{{title}}", AutoShow: true},
				{ID: "welcome-date", Kind: "caption", Text: "{{date}}", AutoShow: true},
				{ID: "welcome-verse", Kind: "caption", Text: "Bienvenidos a CASA"},
			},
		},
		domain.ElementSong: {
			Name:       "alabanza",
			Background: "dark-texture",
			Props: []domain.PropDef{
				{ID: "song-texture", Kind: "texture", AssetURL: "/assets/looks/grain.png", AutoShow: true},
				{ID: "song-lower-third", Kind: "banner", Text: "{{title}}"},
			},
		},
		domain.ElementPrayer: {
			Name:       "oración",
			Background: "soft-light",
			Props: []domain.PropDef{
				{ID: "prayer-frame", Kind: "frame", AssetURL: "/assets/looks/frame.png", AutoShow: true},
				{ID: "prayer-caption", Kind: "caption", Text: "Oramos juntos"},
			},
		},
		domain.ElementReading: {
			Name:       "lectura",
			Background: "parchment",
			Props: []domain.PropDef{
				{ID: "reading-ref", Kind: "caption", Text: "{{title}}", AutoShow: true},
			},
		},
		domain.ElementSermon: {
			Name:       "mensaje",
			Background: "plain-dark",
			Props: []domain.PropDef{
				{ID: "sermon-banner", Kind: "banner", Text: "{{title}}", AutoShow: true},
				{ID: "sermon-date", Kind: "caption", Text: "{{date}}"},
			},
		},
		domain.ElementAnnouncement: {
			Name:       "anuncios",
			Background: "amber-lines",
			Props: []domain.PropDef{
				{ID: "announcement-date", Kind: "caption", Text: "{{date}}", AutoShow: true},
			},
		},
		domain.ElementCommunion: {
			Name:       "comunión",
			Background: "candle-light",
			Props: []domain.PropDef{
				{ID: "communion-frame", Kind: "frame", AssetURL: "/assets/looks/bread.png", AutoShow: true},
				{ID: "communion-caption", Kind: "caption", Text: "La mesa del Señor"},
			},
		},
		domain.ElementOffering: {
			Name:       "ofrenda",
			Background: "plain-dark",
			Props: []domain.PropDef{
				{ID: "offering-caption", Kind: "caption", Text: "Ofrenda y gratitud", AutoShow: true},
			},
		},
	})
}
