// Package instruments is the instrument template catalog: families,
// instrument groups and the templates that declare an instrument's family,
// staff count and per-staff brackets and barline spans.
//
// Template ranks follow catalog order across all groups, so a rank is a
// stable position in the global template ordering.
package instruments

import (
	"github.com/FocuswithJustin/ScoreOrder/core/score"
)

// Family is the natural classification bucket of an instrument.
type Family struct {
	ID   string
	Name string
}

// Group is an instrument group of the catalog (e.g. "woodwinds").
type Group struct {
	ID        string
	Name      string
	Templates []*Template
}

// Template describes one instrument.
type Template struct {
	ID     string
	Name   string
	Family *Family // may be nil
	Group  *Group

	// Per-staff declarations, each of length Staves().
	Brackets     []score.BracketType
	BracketSpans []int
	BarlineSpans []bool
}

// NewTemplate returns a template with nstaves staves and no brackets.
func NewTemplate(id, name string, family *Family, nstaves int) *Template {
	if nstaves < 1 {
		nstaves = 1
	}
	t := &Template{
		ID:           id,
		Name:         name,
		Family:       family,
		Brackets:     make([]score.BracketType, nstaves),
		BracketSpans: make([]int, nstaves),
		BarlineSpans: make([]bool, nstaves),
	}
	return t
}

// Staves returns the template's staff count.
func (t *Template) Staves() int {
	return len(t.Brackets)
}

// FamilyID returns the id of the template's family, or "" if it has none.
func (t *Template) FamilyID() string {
	if t.Family == nil {
		return ""
	}
	return t.Family.ID
}

// Index locates a template in the catalog.
type Index struct {
	Template *Template
	Group    int // position of the template's group
	Rank     int // position in the global template ordering
}

// Catalog holds families and instrument groups in definition order.
type Catalog struct {
	families    map[string]*Family
	familyOrder []*Family
	groups      []*Group
	index       map[string]Index
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		families: make(map[string]*Family),
		index:    make(map[string]Index),
	}
}

// AddFamily registers a family. An existing family with the same id is
// returned unchanged.
func (c *Catalog) AddFamily(id, name string) *Family {
	if f, ok := c.families[id]; ok {
		return f
	}
	if name == "" {
		name = id
	}
	f := &Family{ID: id, Name: name}
	c.families[id] = f
	c.familyOrder = append(c.familyOrder, f)
	return f
}

// Family returns the family with id, or nil.
func (c *Catalog) Family(id string) *Family {
	return c.families[id]
}

// Families returns the families in definition order.
func (c *Catalog) Families() []*Family {
	return c.familyOrder
}

// AddGroup registers an instrument group, returning an existing one with the
// same id.
func (c *Catalog) AddGroup(id, name string) *Group {
	for _, g := range c.groups {
		if g.ID == id {
			return g
		}
	}
	if name == "" {
		name = id
	}
	g := &Group{ID: id, Name: name}
	c.groups = append(c.groups, g)
	return g
}

// AddTemplate appends t to group g. A template whose id is already known
// is ignored and false is returned.
func (c *Catalog) AddTemplate(g *Group, t *Template) bool {
	if _, ok := c.index[t.ID]; ok {
		return false
	}
	t.Group = g
	g.Templates = append(g.Templates, t)
	c.reindex()
	return true
}

func (c *Catalog) reindex() {
	c.index = make(map[string]Index, len(c.index)+1)
	rank := 0
	for gi, g := range c.groups {
		for _, t := range g.Templates {
			c.index[t.ID] = Index{Template: t, Group: gi, Rank: rank}
			rank++
		}
	}
}

// Groups returns the instrument groups in catalog order.
func (c *Catalog) Groups() []*Group {
	return c.groups
}

// Lookup returns the template with id and its position in the catalog.
func (c *Catalog) Lookup(id string) (Index, bool) {
	ii, ok := c.index[id]
	return ii, ok
}

// Template returns the template with id, or nil.
func (c *Catalog) Template(id string) *Template {
	return c.index[id].Template
}

// TemplateCount returns the number of templates in all groups.
func (c *Catalog) TemplateCount() int {
	return len(c.index)
}

// StaffCount returns the staff count of the template with id, or 1 when the
// instrument is unknown.
func (c *Catalog) StaffCount(id string) int {
	if t := c.Template(id); t != nil {
		return t.Staves()
	}
	return 1
}
