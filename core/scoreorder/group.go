package scoreorder

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/ScoreOrder/core/xml"
)

// Sentinel group ids.
const (
	SoloistsID = "<soloists>"
	UnsortedID = "<unsorted>"
)

// Flags are the display flags of a Group.
type Flags struct {
	Bracket            bool
	ShowSystemMarkings bool
	BarLineSpan        bool
	ThinBracket        bool
}

// DefaultFlags are the flags of a group that declares none.
var DefaultFlags = Flags{BarLineSpan: true, ThinBracket: true}

// Group is a bucket of an Order. Groups are immutable once created.
type Group struct {
	id       string
	section  string
	soloists bool
	unsorted bool
	filter   string // instrument group id an unsorted bucket is limited to; "" = any
	flags    Flags
	index    int
}

func newGroup(seq *Sequence, id, section string, flags Flags) *Group {
	return &Group{id: id, section: section, flags: flags, index: seq.Next()}
}

func newUnsortedGroup(seq *Sequence, filter, section string, flags Flags) *Group {
	g := newGroup(seq, UnsortedID, section, flags)
	g.unsorted = true
	g.filter = filter
	return g
}

func newSoloistsGroup(seq *Sequence, section string) *Group {
	g := newGroup(seq, SoloistsID, section, DefaultFlags)
	g.soloists = true
	return g
}

// Clone returns a copy of g with a new creation index.
func (g *Group) Clone(seq *Sequence) *Group {
	c := *g
	c.index = seq.Next()
	return &c
}

// ID returns the family id or a sentinel id.
func (g *Group) ID() string { return g.id }

// Section returns the section label; "" means no section.
func (g *Group) Section() string { return g.section }

// IsSoloists reports whether g is the soloists bucket.
func (g *Group) IsSoloists() bool { return g.soloists }

// IsUnsorted reports whether g is an unsorted bucket of any kind.
func (g *Group) IsUnsorted() bool { return g.unsorted }

// Filter returns the instrument group an unsorted bucket is limited to.
func (g *Group) Filter() string { return g.filter }

// MatchesUnsorted reports whether g is an unsorted bucket whose filter is
// exactly filter. The empty filter matches only catch-all buckets.
func (g *Group) MatchesUnsorted(filter string) bool {
	return g.unsorted && g.filter == filter
}

// Flags returns the display flags.
func (g *Group) Flags() Flags { return g.flags }

// Index returns the creation index, the group's rank in every sort key.
func (g *Group) Index() int { return g.index }

// Write emits the group's element.
func (g *Group) Write(x *xml.Writer) {
	switch {
	case g.soloists:
		x.EmptyTag("soloists")
	case !g.unsorted:
		x.Tag("family", g.id)
	case g.filter == "":
		x.EmptyTag("unsorted")
	default:
		x.EmptyTag("unsorted", xml.A("group", g.filter))
	}
}

// String returns the one-line form used by Order.Dump.
func (g *Group) String() string {
	name := g.id
	if g.section != "" {
		name = g.section + "/" + g.id
	}
	if g.unsorted && g.filter != "" {
		name += ", group = " + g.filter
	}
	var marks []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{g.flags.ShowSystemMarkings, "showSystemMarkings"},
		{g.flags.BarLineSpan, "barLineSpan"},
		{g.flags.ThinBracket, "thinBrackets"},
		{g.flags.Bracket, "brackets"},
	} {
		if f.on {
			marks = append(marks, f.name)
		} else {
			marks = append(marks, "no "+f.name)
		}
	}
	return fmt.Sprintf("%d : %s : %s", g.index, name, strings.Join(marks, ", "))
}
