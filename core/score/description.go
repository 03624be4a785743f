package score

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/ScoreOrder/core/errors"
	"github.com/FocuswithJustin/ScoreOrder/internal/validation"
)

// Description is a parsed score description file:
//
//	# comment
//	score "Symphony No. 1"
//	part flute
//	part violin soloist
//	part piano staves 2
type Description struct {
	Title *string     `( "score" @String )?`
	Parts []*PartDecl `@@*`
}

// PartDecl declares one part.
type PartDecl struct {
	Instrument string    `"part" @Ident`
	Options    []*Option `@@*`
}

// Option is a part modifier.
type Option struct {
	Soloist bool `  @"soloist"`
	Staves  *int `| "staves" @Int`
}

var descriptionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.\-]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var descriptionParser = participle.MustBuild[Description](
	participle.Lexer(descriptionLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
)

// ParseDescription parses a score description read from r.
// name is used in error messages. A part may declare at most
// validation.MaxStaves staves.
func ParseDescription(name string, r io.Reader) (*Description, error) {
	d, err := descriptionParser.Parse(name, r)
	if err != nil {
		return nil, errors.NewParse("score", name, err)
	}
	for _, p := range d.Parts {
		for _, o := range p.Options {
			if o.Staves != nil && *o.Staves > validation.MaxStaves {
				return nil, errors.NewValidation("staves", strconv.Itoa(*o.Staves),
					fmt.Sprintf("part %s may have at most %d staves", p.Instrument, validation.MaxStaves))
			}
		}
	}
	return d, nil
}

// LoadDescription reads and parses a score description file.
func LoadDescription(path string) (*Description, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()
	return ParseDescription(path, validation.LimitReader(f, validation.MaxFileSize))
}

// Build creates a Score from the description. Parts without an explicit
// staff count get staffCount(instrumentID) staves; staffCount may be nil.
func (d *Description) Build(staffCount func(instrumentID string) int) *Score {
	title := ""
	if d.Title != nil {
		title = *d.Title
	}
	s := New(title)
	for _, p := range d.Parts {
		soloist := false
		staves := 0
		for _, o := range p.Options {
			if o.Soloist {
				soloist = true
			}
			if o.Staves != nil {
				staves = *o.Staves
			}
		}
		if staves == 0 && staffCount != nil {
			staves = staffCount(p.Instrument)
		}
		s.AddPart(p.Instrument, soloist, staves)
	}
	return s
}
