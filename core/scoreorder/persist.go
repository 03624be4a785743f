package scoreorder

import (
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/ScoreOrder/core/xml"
	"github.com/FocuswithJustin/ScoreOrder/internal/logging"
)

// element enumerates the catalog elements the reader understands.
type element int

const (
	elemUnknown element = iota
	elemOrder
	elemName
	elemInstrument
	elemFamily
	elemSection
	elemSoloists
	elemUnsorted
)

func elementOf(name string) element {
	switch name {
	case "Order":
		return elemOrder
	case "name":
		return elemName
	case "instrument":
		return elemInstrument
	case "family":
		return elemFamily
	case "section":
		return elemSection
	case "soloists":
		return elemSoloists
	case "unsorted":
		return elemUnsorted
	default:
		return elemUnknown
	}
}

func skipUnknown(n *xml.Node, parent string) {
	logging.Diagnostic("scoreorder", "unknown element", "element", n.Name(), "parent", parent)
}

// readBoolAttribute reads a true/false attribute. Missing attributes give
// def; unrecognized values are logged and give def.
func readBoolAttribute(n *xml.Node, name string, def bool) bool {
	v, ok := n.LookupAttr(name)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	}
	logging.Diagnostic("scoreorder", "invalid boolean attribute", "attribute", name, "value", v, "default", def)
	return def
}

// readCustomized reads the customized attribute, written as 0 or 1.
func readCustomized(n *xml.Node) bool {
	switch v := n.Attr("customized"); v {
	case "1":
		return true
	case "", "0":
		return false
	}
	return readBoolAttribute(n, "customized", false)
}

// Read replaces the content of o with the Order element n. The order keeps
// its base id; n's id attribute is not consulted.
func (o *Order) Read(n *xml.Node) {
	o.reset()
	if readCustomized(n) {
		o.key = n.Attr("key")
		if o.key != "" && !validKey(o.key) {
			logging.Diagnostic("scoreorder", "invalid order key, assigning a new one", "order", o.id, "key", o.key)
			o.key = ""
		}
		o.SetCustomized()
	}

	for _, child := range n.Children() {
		switch elementOf(child.Name()) {
		case elemName:
			o.name = child.Text()
		case elemSection:
			o.readSection(child)
		case elemInstrument:
			o.readInstrument(child)
		case elemFamily:
			o.AddFamily(child.Text(), "", Flags{})
		case elemSoloists:
			o.AddSoloists("")
		case elemUnsorted:
			o.AddUnsorted(child.Attr("group"), "", Flags{})
		default:
			skipUnknown(child, "Order")
		}
	}
	o.ensureUnsortedGroup()
}

func (o *Order) readInstrument(n *xml.Node) {
	id := n.Attr("id")
	if o.env.Instruments.Template(id) == nil {
		logging.Diagnostic("scoreorder", "cannot find instrument template", "instrument", id, "order", o.id)
		return
	}
	for _, child := range n.Children() {
		switch elementOf(child.Name()) {
		case elemFamily:
			o.overrides[id] = InstrumentOverride{FamilyID: child.Attr("id"), Name: child.Text()}
		default:
			skipUnknown(child, "instrument")
		}
	}
}

func (o *Order) readSection(n *xml.Node) {
	id := n.Attr("id")
	flags := Flags{
		Bracket:            readBoolAttribute(n, "brackets", true),
		ShowSystemMarkings: readBoolAttribute(n, "showSystemMarkings", false),
		BarLineSpan:        readBoolAttribute(n, "barLineSpan", true),
		ThinBracket:        readBoolAttribute(n, "thinBrackets", true),
	}
	for _, child := range n.Children() {
		switch elementOf(child.Name()) {
		case elemFamily:
			o.AddFamily(child.Text(), id, flags)
		case elemUnsorted:
			o.AddUnsorted(child.Attr("group"), id, flags)
		default:
			skipUnknown(child, "section")
		}
	}
}

// ReadOrder creates an order from the Order element n.
func ReadOrder(env *Env, n *xml.Node) *Order {
	o := NewOrder(env, n.Attr("id"), "")
	o.Read(n)
	return o
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Write emits o as an Order element. The custom order is never written.
func (o *Order) Write(x *xml.Writer) {
	if o.IsCustom() {
		return
	}

	attrs := []xml.Attr{xml.A("id", o.id)}
	if o.customized {
		attrs = append(attrs, xml.A("customized", "1"), xml.A("key", o.key))
	} else {
		attrs = append(attrs, xml.A("customized", "0"))
	}
	x.StartTag("Order", attrs...)
	x.Tag("name", o.name)

	for _, id := range slices.Sorted(maps.Keys(o.overrides)) {
		ov := o.overrides[id]
		x.StartTag("instrument", xml.A("id", id))
		x.Tag("family", ov.Name, xml.A("id", ov.FamilyID))
		x.EndTag()
	}

	section := ""
	for _, g := range o.groups {
		if g.section != section {
			if section != "" {
				x.EndTag()
			}
			if g.section != "" {
				x.StartTag("section",
					xml.A("id", g.section),
					xml.A("brackets", boolString(g.flags.Bracket)),
					xml.A("showSystemMarkings", boolString(g.flags.ShowSystemMarkings)),
					xml.A("barLineSpan", boolString(g.flags.BarLineSpan)),
					xml.A("thinBrackets", boolString(g.flags.ThinBracket)),
				)
			}
			section = g.section
		}
		g.Write(x)
	}
	if section != "" {
		x.EndTag()
	}
	x.EndTag()
}

// validKey reports whether k can be used as a customized order key.
func validKey(k string) bool {
	_, err := uuid.Parse(k)
	return err == nil
}
