package scoreorder

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/ScoreOrder/core/errors"
	"github.com/FocuswithJustin/ScoreOrder/core/instruments"
	"github.com/FocuswithJustin/ScoreOrder/core/score"
)

// CustomID is the id of the synthetic order that leaves a score unordered.
const CustomID = "<custom>"

// InstrumentOverride moves an instrument into another family within one Order.
type InstrumentOverride struct {
	FamilyID string
	Name     string // display name of the family
}

// Order is an ordered set of Groups plus per-instrument family overrides.
type Order struct {
	env        *Env
	id         string
	name       string
	key        string // surrogate id of a customized order
	groups     []*Group
	overrides  map[string]InstrumentOverride
	multiplier int
	customized bool
}

// NewOrder returns an empty order. The name defaults to the id.
func NewOrder(env *Env, id, name string) *Order {
	o := &Order{env: env, id: id}
	o.reset()
	if name != "" {
		o.name = name
	}
	return o
}

// reset returns the order to its freshly constructed state.
func (o *Order) reset() {
	o.name = o.id
	o.groups = nil
	o.overrides = make(map[string]InstrumentOverride)
	o.customized = false
	o.key = ""
	o.multiplier = 1
	if !o.IsCustom() {
		o.multiplier += o.env.Instruments.TemplateCount()
	}
}

// Clone returns a customized deep copy of o. Groups get new creation indices.
func (o *Order) Clone() *Order {
	c := &Order{
		env:        o.env,
		id:         o.id,
		name:       o.name,
		overrides:  maps.Clone(o.overrides),
		multiplier: o.multiplier,
	}
	for _, g := range o.groups {
		c.groups = append(c.groups, g.Clone(o.env.Sequence))
	}
	c.SetCustomized()
	return c
}

// BaseID returns the catalog id the order was created with.
func (o *Order) BaseID() string { return o.id }

// ID returns the base id, or "base-key" for a customized order.
func (o *Order) ID() string {
	if o.customized {
		return o.id + "-" + o.key
	}
	return o.id
}

// Key returns the surrogate id of a customized order, or "".
func (o *Order) Key() string { return o.key }

// Name returns the display name. The custom order is always "Custom".
func (o *Order) Name() string {
	if o.IsCustom() {
		return o.env.printer().Sprintf(customNameKey)
	}
	return o.env.translate(o.name)
}

// FullName returns the display name qualified for customized orders.
func (o *Order) FullName() string {
	if o.customized {
		return o.env.printer().Sprintf(customizedNameKey, o.env.translate(o.name))
	}
	return o.Name()
}

// RawName returns the stored, untranslated name.
func (o *Order) RawName() string { return o.name }

// IsCustom reports whether o is the synthetic custom order.
func (o *Order) IsCustom() bool { return o.id == CustomID }

// IsCustomized reports whether o was derived from a catalog order by edits.
func (o *Order) IsCustomized() bool { return o.customized }

// SetCustomized marks o as customized and assigns its surrogate key.
// The custom order cannot be customized.
func (o *Order) SetCustomized() {
	if o.IsCustom() {
		return
	}
	o.customized = true
	if o.key == "" {
		o.key = uuid.NewString()
	}
}

// GroupMultiplier returns the sort key capacity reserved per group.
func (o *Order) GroupMultiplier() int { return o.multiplier }

// Groups returns the groups in definition order.
func (o *Order) Groups() []*Group { return slices.Clone(o.groups) }

// Overrides returns a copy of the instrument overrides.
func (o *Order) Overrides() map[string]InstrumentOverride { return maps.Clone(o.overrides) }

// SoloistsGroup returns the soloists group, or nil.
func (o *Order) SoloistsGroup() *Group {
	for _, g := range o.groups {
		if g.soloists {
			return g
		}
	}
	return nil
}

// UnsortedGroup returns the default unsorted group: the first catch-all
// unsorted group, or nil.
func (o *Order) UnsortedGroup() *Group {
	for _, g := range o.groups {
		if g.MatchesUnsorted("") {
			return g
		}
	}
	return nil
}

// AddFamily appends a family group. If a group with the same id exists it is
// returned and added is false.
func (o *Order) AddFamily(id, section string, flags Flags) (g *Group, added bool) {
	for _, g := range o.groups {
		if g.id == id {
			return g, false
		}
	}
	g = newGroup(o.env.Sequence, id, section, flags)
	o.groups = append(o.groups, g)
	return g, true
}

// AddUnsorted appends an unsorted group limited to the instrument group
// filter ("" for a catch-all). An unsorted group with the same filter is
// returned instead if present.
func (o *Order) AddUnsorted(filter, section string, flags Flags) (g *Group, added bool) {
	for _, g := range o.groups {
		if g.MatchesUnsorted(filter) {
			return g, false
		}
	}
	g = newUnsortedGroup(o.env.Sequence, filter, section, flags)
	o.groups = append(o.groups, g)
	return g, true
}

// AddSoloists appends the soloists group unless the order has one.
func (o *Order) AddSoloists(section string) (g *Group, added bool) {
	if g := o.SoloistsGroup(); g != nil {
		return g, false
	}
	g = newSoloistsGroup(o.env.Sequence, section)
	o.groups = append(o.groups, g)
	return g, true
}

// ensureUnsortedGroup adds a sectionless catch-all without any display
// flags when the order has no default unsorted group.
func (o *Order) ensureUnsortedGroup() {
	if o.UnsortedGroup() == nil {
		o.AddUnsorted("", "", Flags{})
	}
}

// SetOverride moves an instrument into a family for this order.
func (o *Order) SetOverride(instrumentID, familyID string) error {
	if o.env.Instruments.Template(instrumentID) == nil {
		return errors.NewNotFound("instrument", instrumentID)
	}
	name := familyID
	if f := o.env.Instruments.Family(familyID); f != nil {
		name = f.Name
	}
	o.overrides[instrumentID] = InstrumentOverride{FamilyID: familyID, Name: name}
	return nil
}

// RemoveOverride drops the override of an instrument.
func (o *Order) RemoveOverride(instrumentID string) {
	delete(o.overrides, instrumentID)
}

// UpdateInstruments pins every instrument of s to its template family, so
// later catalog changes do not move the score's instruments.
func (o *Order) UpdateInstruments(s *score.Score) {
	for _, part := range s.Parts() {
		t := o.env.Instruments.Template(part.InstrumentID)
		if t == nil || t.Family == nil {
			continue
		}
		o.overrides[t.ID] = InstrumentOverride{FamilyID: t.Family.ID, Name: t.Family.Name}
	}
}

// familyOf returns the family id the order files t under.
func (o *Order) familyOf(t *instruments.Template) string {
	if ov, ok := o.overrides[t.ID]; ok {
		return ov.FamilyID
	}
	if t.Family != nil {
		return t.Family.ID
	}
	return UnsortedID
}

// groupFor picks the group for a family. An exact family group wins; else
// the last unsorted group limited to the instrument's group; else the
// default unsorted group.
func (o *Order) groupFor(family, instrumentGroup string) *Group {
	if family == "" {
		return o.UnsortedGroup()
	}
	var unsorted *Group
	for _, g := range o.groups {
		if !g.unsorted && g.id == family {
			return g
		}
		if g.MatchesUnsorted(instrumentGroup) {
			unsorted = g
		}
	}
	if unsorted != nil {
		return unsorted
	}
	return o.UnsortedGroup()
}

func (o *Order) classify(ii instruments.Index, found, soloist bool) *Group {
	if soloist {
		if g := o.SoloistsGroup(); g != nil {
			return g
		}
	}
	if !found {
		return o.UnsortedGroup()
	}
	return o.groupFor(o.familyOf(ii.Template), ii.Template.Group.ID)
}

// Classify returns the group an instrument belongs to. It is nil only for an
// order without a default unsorted group.
func (o *Order) Classify(instrumentID string, soloist bool) *Group {
	ii, found := o.env.Instruments.Lookup(instrumentID)
	return o.classify(ii, found, soloist)
}

// SortIndex returns the sort key of an instrument: the group index times the
// group multiplier, plus the instrument's catalog rank unless the group is
// an unsorted bucket.
func (o *Order) SortIndex(instrumentID string, soloist bool) int {
	ii, found := o.env.Instruments.Lookup(instrumentID)
	g := o.classify(ii, found, soloist)
	groupIndex, unsorted := o.multiplier, false
	if g != nil {
		groupIndex, unsorted = g.index, g.unsorted
	}
	key := o.multiplier * groupIndex
	if !unsorted && found {
		key += ii.Rank
	}
	return key
}

// InUnsortedGroup reports whether an instrument lands in the soloists or an
// unsorted group, i.e. has no fixed place among the families.
func (o *Order) InUnsortedGroup(instrumentID string, soloist bool) bool {
	if soloist {
		return true
	}
	g := o.Classify(instrumentID, soloist)
	return g == nil || g.unsorted
}

// SortIndices returns the sort key of every part of s in score order.
func (o *Order) SortIndices(s *score.Score) []int {
	indices := make([]int, 0, len(s.Parts()))
	for _, part := range s.Parts() {
		indices = append(indices, o.SortIndex(part.InstrumentID, part.Soloist))
	}
	return indices
}

// IsValidOrdering reports whether indices are non-decreasing. Every
// ordering is valid for the custom order.
func (o *Order) IsValidOrdering(indices []int) bool {
	if o.IsCustom() {
		return true
	}
	prev := -1
	for _, cur := range indices {
		if cur < prev {
			return false
		}
		prev = cur
	}
	return true
}

// IsScoreOrder reports whether the parts of s are in this order.
func (o *Order) IsScoreOrder(s *score.Score) bool {
	return o.IsValidOrdering(o.SortIndices(s))
}

// Dump writes a human-readable listing of the order.
func (o *Order) Dump(w io.Writer) {
	fmt.Fprintf(w, "   order : %s, name = %s\n", o.ID(), o.name)
	if len(o.overrides) == 0 {
		fmt.Fprintln(w, "      no instrument mapping")
	} else {
		fmt.Fprintln(w, "      instrument mapping:")
		for _, id := range slices.Sorted(maps.Keys(o.overrides)) {
			fmt.Fprintf(w, "         %s => %s\n", id, o.overrides[id].FamilyID)
		}
	}
	fmt.Fprintln(w, "   sections:")
	for _, g := range o.groups {
		fmt.Fprintf(w, "      %s\n", g)
	}
}
