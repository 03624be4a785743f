package scoreorder

import (
	"bytes"
	"slices"

	"github.com/FocuswithJustin/ScoreOrder/core/errors"
	"github.com/FocuswithJustin/ScoreOrder/core/score"
	"github.com/FocuswithJustin/ScoreOrder/core/xml"
	"github.com/FocuswithJustin/ScoreOrder/internal/logging"
)

// Registry is the ordered list of known Orders. It always holds the custom
// order, which stays behind every non-customized order.
type Registry struct {
	env    *Env
	orders []*Order
}

// NewRegistry returns a registry holding only the custom order.
func NewRegistry(env *Env) *Registry {
	r := &Registry{env: env}
	custom := NewOrder(env, CustomID, "Custom")
	custom.ensureUnsortedGroup()
	r.Add(custom)
	return r
}

// Env returns the environment shared by the registry's orders.
func (r *Registry) Env() *Env { return r.env }

// Orders returns the orders in display order.
func (r *Registry) Orders() []*Order { return slices.Clone(r.orders) }

// Len returns the number of orders, the custom order included.
func (r *Registry) Len() int { return len(r.orders) }

// At returns the order at index i.
func (r *Registry) At(i int) *Order { return r.orders[i] }

// Custom returns the custom order.
func (r *Registry) Custom() *Order {
	for _, o := range r.orders {
		if o.IsCustom() {
			return o
		}
	}
	return nil
}

// IndexOf returns the position of o, or -1.
func (r *Registry) IndexOf(o *Order) int {
	return slices.Index(r.orders, o)
}

// FindByID returns the order whose ID() is id, or nil.
func (r *Registry) FindByID(id string) *Order {
	for _, o := range r.orders {
		if o.ID() == id {
			return o
		}
	}
	return nil
}

// FindByName returns the first order with the display name. With customized
// set only customized orders match; otherwise a non-customized order is
// preferred and the last customized match is the fallback.
func (r *Registry) FindByName(name string, customized bool) *Order {
	var fallback *Order
	for _, o := range r.orders {
		if o.Name() != name {
			continue
		}
		switch {
		case customized && o.customized:
			return o
		case customized:
		case o.customized:
			fallback = o
		default:
			return o
		}
	}
	return fallback
}

// GetByID returns the order with the id, creating and adding an empty one
// when there is none.
func (r *Registry) GetByID(id string) *Order {
	if o := r.FindByID(id); o != nil {
		return o
	}
	o := NewOrder(r.env, id, "")
	r.Add(o)
	return o
}

// appendOrder adds o at the end, in front of a trailing custom order.
func (r *Registry) appendOrder(o *Order) {
	n := len(r.orders)
	if n == 0 || !r.orders[n-1].IsCustom() {
		r.orders = append(r.orders, o)
		return
	}
	r.orders = slices.Insert(r.orders, n-1, o)
}

// Add inserts o. A customized order goes right after the first order with
// the same display name; without one it is appended and loses its
// customized mark. Adding an order twice is a no-op.
func (r *Registry) Add(o *Order) {
	if o == nil || r.IndexOf(o) >= 0 {
		return
	}
	if !o.customized {
		r.appendOrder(o)
		return
	}
	for i, other := range r.orders {
		if other.Name() == o.Name() {
			r.orders = slices.Insert(r.orders, i+1, o)
			return
		}
	}
	r.appendOrder(o)
	o.customized = false
	o.key = ""
}

// Remove deletes o. The first order, the custom order and unknown orders
// are never removed; Remove reports whether o was deleted.
func (r *Registry) Remove(o *Order) bool {
	i := r.IndexOf(o)
	if i <= 0 || o.IsCustom() {
		return false
	}
	r.orders = slices.Delete(r.orders, i, i+1)
	return true
}

// Search returns the non-custom orders for which indices is a valid ordering.
func (r *Registry) Search(indices []int) []*Order {
	var found []*Order
	for _, o := range r.orders {
		if !o.IsCustom() && o.IsValidOrdering(indices) {
			found = append(found, o)
		}
	}
	return found
}

// ClassifyPrefixes returns, for every part prefix of s, the non-custom
// orders that accept the prefix. Result i covers parts 0..i. Each order is
// checked against its own sort keys.
func (r *Registry) ClassifyPrefixes(s *score.Score) [][]*Order {
	parts := s.Parts()
	result := make([][]*Order, len(parts))
	keys := make(map[*Order][]int, len(r.orders))
	for i, part := range parts {
		for _, o := range r.orders {
			if o.IsCustom() {
				continue
			}
			keys[o] = append(keys[o], o.SortIndex(part.InstrumentID, part.Soloist))
			if o.IsValidOrdering(keys[o]) {
				result[i] = append(result[i], o)
			}
		}
	}
	return result
}

// Classify returns the non-custom orders the parts of s are sorted by.
func (r *Registry) Classify(s *score.Score) []*Order {
	var found []*Order
	for _, o := range r.orders {
		if !o.IsCustom() && o.IsScoreOrder(s) {
			found = append(found, o)
		}
	}
	return found
}

// Read merges the Order elements below root into the registry. An order
// already present under the same id is read again in place.
func (r *Registry) Read(root *xml.Node) {
	for _, n := range root.Children() {
		if elementOf(n.Name()) != elemOrder {
			skipUnknown(n, root.Name())
			continue
		}
		r.readOrder(n)
	}
}

func (r *Registry) readOrder(n *xml.Node) *Order {
	id := n.Attr("id")
	if id == CustomID {
		logging.Diagnostic("scoreorder", "ignoring stored custom order")
		return nil
	}
	customized, key := readCustomized(n), n.Attr("key")
	// A customized order without a key is always new.
	if !customized || key != "" {
		effective := id
		if customized {
			effective = id + "-" + key
		}
		if o := r.FindByID(effective); o != nil {
			o.Read(n)
			return o
		}
	}
	o := NewOrder(r.env, id, "")
	o.Read(n)
	r.Add(o)
	return o
}

// AddFromXML reads a document whose root is a single Order element and
// merges it into the registry.
func (r *Registry) AddFromXML(data []byte) (*Order, error) {
	doc, err := xml.Parse(data)
	if err != nil {
		return nil, errors.NewParse("order", "", err)
	}
	root := doc.Root()
	if root == nil || elementOf(root.Name()) != elemOrder {
		return nil, errors.NewValidation("document", "", "root element is not an Order")
	}
	o := r.readOrder(root)
	if o == nil {
		return nil, errors.NewValidation("order", CustomID, "the custom order cannot be stored")
	}
	return o, nil
}

// Write emits every order below a museScore root element.
func (r *Registry) Write(x *xml.Writer) {
	x.Header()
	x.StartTag("museScore")
	for _, o := range r.orders {
		o.Write(x)
	}
	x.EndTag()
}

// Marshal returns the standalone XML document of o.
func (o *Order) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	x := xml.NewWriter(&buf)
	x.Header()
	o.Write(x)
	if err := x.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
