package scoreorder

import (
	"maps"
	"slices"
)

// Summary is a serializable description of an Order.
type Summary struct {
	ID         string            `yaml:"id" json:"id"`
	Name       string            `yaml:"name" json:"name"`
	FullName   string            `yaml:"full_name" json:"full_name"`
	Customized bool              `yaml:"customized" json:"customized"`
	Multiplier int               `yaml:"group_multiplier" json:"group_multiplier"`
	Overrides  []OverrideSummary `yaml:"overrides,omitempty" json:"overrides,omitempty"`
	Groups     []GroupSummary    `yaml:"groups" json:"groups"`
}

// OverrideSummary describes one instrument override.
type OverrideSummary struct {
	Instrument string `yaml:"instrument" json:"instrument"`
	Family     string `yaml:"family" json:"family"`
	Name       string `yaml:"name,omitempty" json:"name,omitempty"`
}

// GroupSummary describes one group.
type GroupSummary struct {
	ID                 string `yaml:"id" json:"id"`
	Section            string `yaml:"section,omitempty" json:"section,omitempty"`
	Kind               string `yaml:"kind" json:"kind"`
	Filter             string `yaml:"filter,omitempty" json:"filter,omitempty"`
	Index              int    `yaml:"index" json:"index"`
	Bracket            bool   `yaml:"bracket" json:"bracket"`
	ShowSystemMarkings bool   `yaml:"show_system_markings" json:"show_system_markings"`
	BarLineSpan        bool   `yaml:"bar_line_span" json:"bar_line_span"`
	ThinBracket        bool   `yaml:"thin_bracket" json:"thin_bracket"`
}

// Kind returns "soloists", "unsorted" or "family".
func (g *Group) Kind() string {
	switch {
	case g.soloists:
		return "soloists"
	case g.unsorted:
		return "unsorted"
	default:
		return "family"
	}
}

// Describe returns a summary of o.
func (o *Order) Describe() Summary {
	s := Summary{
		ID:         o.ID(),
		Name:       o.Name(),
		FullName:   o.FullName(),
		Customized: o.customized,
		Multiplier: o.multiplier,
	}
	for _, id := range slices.Sorted(maps.Keys(o.overrides)) {
		ov := o.overrides[id]
		s.Overrides = append(s.Overrides, OverrideSummary{Instrument: id, Family: ov.FamilyID, Name: ov.Name})
	}
	for _, g := range o.groups {
		f := g.flags
		s.Groups = append(s.Groups, GroupSummary{
			ID:                 g.id,
			Section:            g.section,
			Kind:               g.Kind(),
			Filter:             g.filter,
			Index:              g.index,
			Bracket:            f.Bracket,
			ShowSystemMarkings: f.ShowSystemMarkings,
			BarLineSpan:        f.BarLineSpan,
			ThinBracket:        f.ThinBracket,
		})
	}
	return s
}
