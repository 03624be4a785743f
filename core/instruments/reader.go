package instruments

import (
	_ "embed"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/FocuswithJustin/ScoreOrder/core/errors"
	"github.com/FocuswithJustin/ScoreOrder/core/score"
	"github.com/FocuswithJustin/ScoreOrder/core/xml"
	"github.com/FocuswithJustin/ScoreOrder/internal/logging"
	"github.com/FocuswithJustin/ScoreOrder/internal/validation"
)

//go:embed instruments.xml
var defaultCatalogXML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in template catalog. It is parsed once.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultCatalogXML)
		if err != nil {
			panic("instruments: built-in catalog: " + err.Error())
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load reads a template catalog file. Only plain XML is read; compressed or
// database content is an *errors.UnsupportedError.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	kind, err := validation.ValidateFileType(f, path)
	if err != nil {
		return nil, errors.NewParse("instruments", path, err)
	}
	if kind == validation.FileTypeXZ || kind == validation.FileTypeSQLite {
		return nil, errors.NewUnsupported("instrument catalog format", string(kind)+" content in "+path)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	data, err := io.ReadAll(validation.LimitReader(f, validation.MaxFileSize))
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return c, nil
}

// Parse reads a template catalog document:
//
//	<museScore>
//	  <Family id="flutes">Flutes</Family>
//	  <InstrumentGroup id="woodwinds">
//	    <name>Woodwinds</name>
//	    <Instrument id="flute">
//	      <name>Flute</name>
//	      <family>flutes</family>
//	      <staves>1</staves>
//	      <bracket staff="1" span="2">brace</bracket>
//	      <barlineSpan staff="1">true</barlineSpan>
//	    </Instrument>
//	  </InstrumentGroup>
//	</museScore>
//
// Malformed values are logged and replaced by defaults.
func Parse(data []byte) (*Catalog, error) {
	doc, err := xml.Parse(data)
	if err != nil {
		return nil, errors.NewParse("instruments", "", err)
	}
	c := New()

	families, err := doc.XPath("/*/Family")
	if err != nil {
		return nil, errors.NewParse("instruments", "", err)
	}
	for _, f := range families {
		c.AddFamily(f.Attr("id"), f.Text())
	}

	groups, err := doc.XPath("/*/InstrumentGroup")
	if err != nil {
		return nil, errors.NewParse("instruments", "", err)
	}
	for _, gn := range groups {
		g := c.AddGroup(gn.Attr("id"), "")
		for _, child := range gn.Children() {
			switch child.Name() {
			case "name":
				g.Name = child.Text()
			case "Instrument":
				t := c.readTemplate(child)
				if !c.AddTemplate(g, t) {
					logging.Diagnostic("instruments", "duplicate instrument template", "id", t.ID)
				}
			default:
				logging.Diagnostic("instruments", "unknown element", "element", child.Name())
			}
		}
	}
	return c, nil
}

func (c *Catalog) readTemplate(n *xml.Node) *Template {
	id := n.Attr("id")
	name := id
	familyID := ""
	staves := 1
	var brackets, barlines []*xml.Node

	for _, child := range n.Children() {
		switch child.Name() {
		case "name":
			name = child.Text()
		case "family":
			familyID = child.Text()
		case "staves":
			if v, err := strconv.Atoi(child.Text()); err == nil && v > 0 && v <= validation.MaxStaves {
				staves = v
			} else {
				logging.Diagnostic("instruments", "invalid staff count", "id", id, "value", child.Text())
			}
		case "bracket":
			brackets = append(brackets, child)
		case "barlineSpan":
			barlines = append(barlines, child)
		default:
			logging.Diagnostic("instruments", "unknown element", "element", child.Name(), "id", id)
		}
	}

	var family *Family
	if familyID != "" {
		family = c.Family(familyID)
		if family == nil {
			logging.Diagnostic("instruments", "undeclared family", "id", id, "family", familyID)
			family = c.AddFamily(familyID, "")
		}
	}

	t := NewTemplate(id, name, family, staves)
	for _, b := range brackets {
		i, ok := staffIndex(b, staves, id)
		if !ok {
			continue
		}
		bt, ok := score.ParseBracketType(b.Text())
		if !ok {
			logging.Diagnostic("instruments", "invalid bracket type", "id", id, "value", b.Text())
			continue
		}
		span := 1
		if v, err := strconv.Atoi(b.Attr("span")); err == nil && v > 0 && v <= validation.MaxStaves {
			span = v
		}
		t.Brackets[i] = bt
		t.BracketSpans[i] = span
	}
	for _, b := range barlines {
		i, ok := staffIndex(b, staves, id)
		if !ok {
			continue
		}
		switch strings.ToLower(b.Text()) {
		case "true", "1":
			t.BarlineSpans[i] = true
		case "false", "0":
			t.BarlineSpans[i] = false
		default:
			logging.Diagnostic("instruments", "invalid barline span", "id", id, "value", b.Text())
		}
	}
	return t
}

// staffIndex reads the 1-based staff attribute of a per-staff declaration.
func staffIndex(n *xml.Node, staves int, id string) (int, bool) {
	v, present := n.LookupAttr("staff")
	if !present {
		return 0, true
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 1 || i > staves {
		logging.Diagnostic("instruments", "invalid staff attribute", "id", id, "value", v)
		return 0, false
	}
	return i - 1, true
}
