package scoreorder

import (
	"github.com/FocuswithJustin/ScoreOrder/core/score"
)

// Bracket columns used by DeriveLayout.
const (
	SectionColumn    = 0 // thick brackets spanning a section
	InstrumentColumn = 1 // thin brackets joining parts of one instrument
	TemplateColumn   = 2 // brackets declared by multi-staff templates
)

// pendingBracket is a bracket run that has not been closed yet.
type pendingBracket struct {
	anchor *score.Staff
	span   int
}

func (p *pendingBracket) start(anchor *score.Staff) {
	p.anchor = anchor
	p.span = 0
}

// close emits the run if it spans more than one staff and clears it.
func (p *pendingBracket) close(sink score.CommandSink, column int, bt score.BracketType) {
	if p.anchor != nil && p.span > 1 {
		sink.Push(&score.AddBracket{
			Staff:   p.anchor.Index(),
			Bracket: score.Bracket{Column: column, Type: bt, Span: p.span},
		})
	}
	p.anchor = nil
	p.span = 0
}

// DeriveLayout replaces the brackets and barline spans of s with those
// implied by the order, pushing every change into sink.
//
// Consecutive parts whose groups share a bracketed section get one thick
// bracket; consecutive parts of the same single-staff instrument get a thin
// bracket when their group allows it; multi-staff instruments keep the
// brackets and barline spans their template declares. Barlines join a staff
// to the next one when the next staff's group asks for it and both are in
// the same section. Parts with unknown instruments are left untouched, and
// the custom order changes nothing.
func (o *Order) DeriveLayout(s *score.Score, sink score.CommandSink) {
	if o.IsCustom() {
		return
	}

	var (
		prevGroup *Group
		prevStaff *score.Staff
		thick     pendingBracket
		thin      pendingBracket
	)
	prevInstrument := -1

	for _, part := range s.Parts() {
		ii, found := o.env.Instruments.Lookup(part.InstrumentID)
		if !found {
			continue
		}
		g := o.classify(ii, found, part.Soloist)
		if g == nil {
			continue
		}
		t := ii.Template
		multiStaff := t.Staves() > 1

		for staffIdx, st := range part.Staves() {
			for _, b := range st.Brackets() {
				sink.Push(&score.RemoveBracket{Staff: st.Index(), Bracket: b})
			}
			sink.Push(&score.ChangeBarlineSpan{Staff: st.Index(), Span: false})

			if staffIdx == 0 {
				if prevGroup == nil || g.section != prevGroup.section {
					thick.close(sink, SectionColumn, score.Normal)
					if g.flags.Bracket {
						thick.start(st)
					}
				}
				if g.flags.Bracket && thick.anchor != nil {
					thick.span += part.NStaves()
				}

				if ii.Rank != prevInstrument {
					thin.close(sink, InstrumentColumn, score.Square)
					if g.flags.ThinBracket && !multiStaff {
						thin.start(st)
					}
				}
				if thin.anchor != nil && !multiStaff {
					thin.span += part.NStaves()
				}
			}

			if multiStaff {
				if staffIdx < t.Staves() {
					if bt := t.Brackets[staffIdx]; bt != score.NoBracket {
						sink.Push(&score.AddBracket{
							Staff:   st.Index(),
							Bracket: score.Bracket{Column: TemplateColumn, Type: bt, Span: t.BracketSpans[staffIdx]},
						})
					}
					sink.Push(&score.ChangeBarlineSpan{Staff: st.Index(), Span: t.BarlineSpans[staffIdx]})
				}
				prevStaff = nil
			} else {
				if prevStaff != nil {
					sameSection := prevGroup == nil || g.section == prevGroup.section
					sink.Push(&score.ChangeBarlineSpan{Staff: prevStaff.Index(), Span: g.flags.BarLineSpan && sameSection})
				}
				prevStaff = st
			}
			prevGroup = g
		}
		prevInstrument = ii.Rank
	}

	thick.close(sink, SectionColumn, score.Normal)
	if prevGroup != nil && prevGroup.flags.ThinBracket {
		thin.close(sink, InstrumentColumn, score.Square)
	}
}
