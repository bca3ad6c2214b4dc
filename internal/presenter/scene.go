package presenter

import (
	"strings"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/util"
)

// SceneState is the resolved look for the current element plus the prop ids
// that are armed (available to trigger) and active (currently shown).
type SceneState struct {
	Look   domain.Look `json:"look"`
	Armed  []string    `json:"armed"`
	Active []string    `json:"active"`
}

func (sc *SceneState) show(propID string) {
	for i, id := range sc.Armed {
		if id == propID {
			sc.Armed = append(sc.Armed[:i], sc.Armed[i+1:]...)
			sc.Active = append(sc.Active, propID)
			return
		}
	}
}

func (sc *SceneState) hide(propID string) {
	for i, id := range sc.Active {
		if id == propID {
			sc.Active = append(sc.Active[:i], sc.Active[i+1:]...)
			sc.Armed = append(sc.Armed, propID)
			return
		}
	}
}

func (sc *SceneState) hideAll() {
	sc.Armed = append(sc.Armed, sc.Active...)
	sc.Active = sc.Active[:0]
}

// LookRegistry maps element types to declarative look templates.
type LookRegistry struct {
	looks map[domain.ElementType]domain.Look
}

func NewLookRegistry(looks map[domain.ElementType]domain.Look) *LookRegistry {
	return &LookRegistry{looks: looks}
}

// Resolve substitutes the liturgy's date and title into the look declared
// for the element type and splits its props by initial visibility. An
// unknown element type resolves to an empty scene, never an error.
func (r *LookRegistry) Resolve(elemType domain.ElementType, liturgy *domain.Liturgy) SceneState {
	look, ok := r.looks[elemType]
	if !ok {
		return SceneState{Armed: []string{}, Active: []string{}}
	}

	replacer := strings.NewReplacer(
		"{{date}}", util.FormatServiceDate(liturgy.ServiceDate),
		"{{title}}", liturgy.Title,
	)

	resolved := domain.Look{
		Name:       look.Name,
		Background: look.Background,
		Props:      make([]domain.PropDef, len(look.Props)),
	}

	armed := []string{}
	active := []string{}
	for i, prop := range look.Props {
		prop.Text = replacer.Replace(prop.Text)
		resolved.Props[i] = prop
		if prop.AutoShow {
			active = append(active, prop.ID)
		} else {
			armed = append(armed, prop.ID)
		}
	}

	return SceneState{Look: resolved, Armed: armed, Active: active}
}
