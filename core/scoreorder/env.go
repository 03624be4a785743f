// Package scoreorder assigns a canonical vertical order to the parts of a
// score and derives bracket and barline grouping from that order.
//
// An Order is a sequence of Groups (families, a soloists bucket and unsorted
// catch-alls). Each instrument is classified into one Group; the Group's
// creation index and the instrument's catalog rank form its sort key. The
// Registry holds every known Order, with the synthetic custom order last.
package scoreorder

import (
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/FocuswithJustin/ScoreOrder/core/instruments"
)

// Sequence hands out group creation indices. Indices start at zero when the
// Sequence is created, only grow, and are never reused, so groups from
// different orders drawn from one Sequence are totally ordered.
type Sequence struct {
	next atomic.Int64
}

// Next returns the next index.
func (s *Sequence) Next() int {
	return int(s.next.Add(1) - 1)
}

// Env is what Orders need from their surroundings: the template catalog used
// for classification, the Sequence for new groups, and the display language.
type Env struct {
	Instruments *instruments.Catalog
	Sequence    *Sequence
	Language    language.Tag
}

// NewEnv returns an Env with a fresh Sequence and English display names.
// A nil catalog means the built-in template catalog.
func NewEnv(catalog *instruments.Catalog) *Env {
	if catalog == nil {
		catalog = instruments.Default()
	}
	return &Env{
		Instruments: catalog,
		Sequence:    &Sequence{},
		Language:    language.English,
	}
}
