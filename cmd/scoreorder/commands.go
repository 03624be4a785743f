package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/ScoreOrder/core/errors"
	"github.com/FocuswithJustin/ScoreOrder/core/score"
	"github.com/FocuswithJustin/ScoreOrder/core/scoreorder"
	"github.com/FocuswithJustin/ScoreOrder/core/sqlite"
	"github.com/FocuswithJustin/ScoreOrder/internal/config"
	"github.com/FocuswithJustin/ScoreOrder/internal/logging"
	"github.com/FocuswithJustin/ScoreOrder/internal/store"
	"github.com/FocuswithJustin/ScoreOrder/internal/validation"
)

// OrdersGroup contains registry inspection commands.
type OrdersGroup struct {
	List   OrdersListCmd   `cmd:"" help:"List every order"`
	Show   OrdersShowCmd   `cmd:"" help:"Show the groups and overrides of an order"`
	Export OrdersExportCmd `cmd:"" help:"Write the catalog document"`
}

// CustomGroup contains customized order store commands.
type CustomGroup struct {
	List   CustomListCmd   `cmd:"" help:"List stored customized orders"`
	Show   CustomShowCmd   `cmd:"" help:"Print the stored XML of a customized order"`
	Remove CustomRemoveCmd `cmd:"" help:"Delete a stored customized order"`
}

// CatalogGroup contains catalog maintenance commands.
type CatalogGroup struct {
	Digest      CatalogDigestCmd      `cmd:"" help:"Print the BLAKE3 digest of the catalog"`
	Instruments CatalogInstrumentsCmd `cmd:"" help:"List instrument families and templates with their ranks"`
}

// SettingsGroup contains configuration commands.
type SettingsGroup struct {
	Show SettingsShowCmd `cmd:"" help:"Print the effective configuration"`
	Save SettingsSaveCmd `cmd:"" help:"Write the effective configuration to a file"`
}

// OrdersListCmd lists the registry.
type OrdersListCmd struct{}

func (c *OrdersListCmd) Run(app *App) error {
	reg, err := app.Registry()
	if err != nil {
		return err
	}
	for i, o := range reg.Orders() {
		mark := ""
		if o.IsCustomized() {
			mark = "*"
		}
		fmt.Fprintf(app.out, "%2d %1s %-48s %s\n", i, mark, o.ID(), o.FullName())
	}
	return nil
}

// OrdersShowCmd prints one order.
type OrdersShowCmd struct {
	Order  string `arg:"" help:"Order id or name"`
	Format string `help:"Output format" enum:"text,yaml,json" default:"text"`
}

func (c *OrdersShowCmd) Run(app *App) error {
	o, err := app.order(c.Order)
	if err != nil {
		return err
	}
	switch c.Format {
	case "yaml":
		enc := yaml.NewEncoder(app.out)
		enc.SetIndent(2)
		if err := enc.Encode(o.Describe()); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		data, err := json.MarshalIndent(o.Describe(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(app.out, string(data))
		return nil
	default:
		o.Dump(app.out)
		return nil
	}
}

// OrdersExportCmd writes the catalog to a file or standard output.
type OrdersExportCmd struct {
	Out string `short:"o" help:"Output file; .xz compresses" type:"path"`
}

func (c *OrdersExportCmd) Run(app *App) error {
	reg, err := app.Registry()
	if err != nil {
		return err
	}
	if c.Out == "" {
		return reg.Encode(app.out)
	}
	if err := reg.Save(c.Out); err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Exported %d orders to %s\n", reg.Len()-1, c.Out)
	return nil
}

// ClassifyCmd finds the orders a score follows.
type ClassifyCmd struct {
	Score    string `arg:"" help:"Score description file" type:"existingfile"`
	Prefixes bool   `help:"Show the matching orders after every part"`
}

func (c *ClassifyCmd) Run(app *App) error {
	reg, err := app.Registry()
	if err != nil {
		return err
	}
	s, err := app.score(c.Score)
	if err != nil {
		return err
	}

	if c.Prefixes {
		for i, orders := range reg.ClassifyPrefixes(s) {
			fmt.Fprintf(app.out, "%2d %-20s %s\n", i, partLabel(s.Parts()[i]), orderNames(orders))
		}
		return nil
	}
	orders := reg.Classify(s)
	if len(orders) == 0 {
		fmt.Fprintln(app.out, "No order matches; the score uses the custom order")
		return nil
	}
	for _, o := range orders {
		fmt.Fprintf(app.out, "%-48s %s\n", o.ID(), o.FullName())
	}
	return nil
}

func partLabel(p *score.Part) string {
	if p.Soloist {
		return p.InstrumentID + " (soloist)"
	}
	return p.InstrumentID
}

func orderNames(orders []*scoreorder.Order) string {
	if len(orders) == 0 {
		return "-"
	}
	names := make([]string, len(orders))
	for i, o := range orders {
		names[i] = o.FullName()
	}
	return strings.Join(names, ", ")
}

// CheckCmd verifies a score against an order.
type CheckCmd struct {
	Order string `arg:"" help:"Order id or name"`
	Score string `arg:"" help:"Score description file" type:"existingfile"`
}

func (c *CheckCmd) Run(app *App) error {
	o, err := app.order(c.Order)
	if err != nil {
		return err
	}
	s, err := app.score(c.Score)
	if err != nil {
		return err
	}
	keys := o.SortIndices(s)
	if o.IsValidOrdering(keys) {
		fmt.Fprintf(app.out, "%s follows %s\n", c.Score, o.FullName())
		return nil
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] < keys[i-1] {
			parts := s.Parts()
			return errors.NewValidation("score", c.Score, fmt.Sprintf("part %d (%s) belongs before part %d (%s) in %s",
				i+1, partLabel(parts[i]), i, partLabel(parts[i-1]), o.FullName()))
		}
	}
	return nil
}

// SortKeysCmd prints the sort key of each part.
type SortKeysCmd struct {
	Order string `arg:"" help:"Order id or name"`
	Score string `arg:"" help:"Score description file" type:"existingfile"`
}

func (c *SortKeysCmd) Run(app *App) error {
	o, err := app.order(c.Order)
	if err != nil {
		return err
	}
	s, err := app.score(c.Score)
	if err != nil {
		return err
	}
	for i, p := range s.Parts() {
		group := "-"
		if g := o.Classify(p.InstrumentID, p.Soloist); g != nil {
			group = g.ID()
			if g.Filter() != "" {
				group += "[" + g.Filter() + "]"
			}
			if g.Section() != "" {
				group = g.Section() + "/" + group
			}
		}
		fmt.Fprintf(app.out, "%2d %-28s %-36s %6d\n", i, partLabel(p), group, o.SortIndex(p.InstrumentID, p.Soloist))
	}
	return nil
}

// LayoutCmd derives and prints the layout of a score.
type LayoutCmd struct {
	Order    string `arg:"" help:"Order id or name"`
	Score    string `arg:"" help:"Score description file" type:"existingfile"`
	Commands bool   `help:"Print the layout commands instead of the resulting staves"`
}

func (c *LayoutCmd) Run(app *App) error {
	o, err := app.order(c.Order)
	if err != nil {
		return err
	}
	s, err := app.score(c.Score)
	if err != nil {
		return err
	}

	undo := score.NewUndoStack(s)
	undo.Begin("layout " + o.ID())
	o.DeriveLayout(s, undo)
	undo.End()

	if c.Commands {
		m := undo.Last()
		if m == nil {
			fmt.Fprintln(app.out, "No changes")
			return nil
		}
		for _, cmd := range m.Commands {
			fmt.Fprintln(app.out, cmd)
		}
		return nil
	}

	for _, p := range s.Parts() {
		for _, st := range p.Staves() {
			var brackets []string
			for _, b := range st.Brackets() {
				brackets = append(brackets, b.String())
			}
			barline := ""
			if st.BarlineSpan() {
				barline = "|"
			}
			fmt.Fprintf(app.out, "%2d %-20s %1s %s\n", st.Index(), p.InstrumentID, barline, strings.Join(brackets, " "))
		}
	}
	return nil
}

// CustomizeCmd clones an order, applies overrides and stores the result.
type CustomizeCmd struct {
	Order  string   `arg:"" help:"Order id or name to start from"`
	Move   []string `short:"m" help:"Move an instrument into a family (instrument=family)"`
	Pin    string   `help:"Pin the instruments of this score to their current families" type:"existingfile"`
	DryRun bool     `help:"Print the customized order instead of storing it"`
}

func (c *CustomizeCmd) Run(app *App) error {
	base, err := app.order(c.Order)
	if err != nil {
		return err
	}
	if base.IsCustom() {
		return errors.NewValidation("order", base.ID(), "the custom order cannot be customized")
	}
	o := base.Clone()

	for _, m := range c.Move {
		instrument, family, ok := strings.Cut(m, "=")
		if !ok {
			return errors.NewValidation("move", m, "expected instrument=family")
		}
		for _, id := range []string{instrument, family} {
			if err := validation.ValidateID(id); err != nil {
				return errors.NewValidation("move", m, err.Error())
			}
		}
		if err := o.SetOverride(instrument, family); err != nil {
			return err
		}
	}
	if c.Pin != "" {
		s, err := app.score(c.Pin)
		if err != nil {
			return err
		}
		o.UpdateInstruments(s)
	}

	if c.DryRun || app.globals.NoStore {
		data, err := o.Marshal()
		if err != nil {
			return err
		}
		_, err = app.out.Write(data)
		return err
	}

	st, err := app.Store()
	if err != nil {
		return err
	}
	if err := st.Save(app.ctx, o); err != nil {
		return err
	}
	reg, err := app.Registry()
	if err != nil {
		return err
	}
	reg.Add(o)
	fmt.Fprintf(app.out, "Stored %s as %s\n", o.FullName(), o.ID())
	return nil
}

// CustomListCmd lists the store.
type CustomListCmd struct{}

func (c *CustomListCmd) Run(app *App) error {
	st, err := app.storeReader()
	if err != nil {
		return err
	}
	var entries []store.Entry
	if st != nil {
		if entries, err = st.List(app.ctx); err != nil {
			return err
		}
	}
	if len(entries) == 0 {
		fmt.Fprintln(app.out, "No customized orders stored")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(app.out, "%-48s %-24s %s %s\n", e.ID, e.Name, e.UpdatedAt.Format("2006-01-02 15:04"), shortDigest(e.Digest))
	}
	return nil
}

// shortDigest abbreviates a stored digest for listing.
func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

// CustomShowCmd prints one stored order.
type CustomShowCmd struct {
	ID string `arg:"" help:"Id of the customized order"`
}

func (c *CustomShowCmd) Run(app *App) error {
	st, err := app.storeReader()
	if err != nil {
		return err
	}
	if st == nil {
		return errors.NewNotFound("order", c.ID)
	}
	data, err := st.Get(app.ctx, c.ID)
	if err != nil {
		return err
	}
	_, err = app.out.Write(data)
	return err
}

// CustomRemoveCmd deletes a stored order.
type CustomRemoveCmd struct {
	ID string `arg:"" help:"Id of the customized order"`
}

func (c *CustomRemoveCmd) Run(app *App) error {
	st, err := app.Store()
	if err != nil {
		return err
	}
	if err := st.Delete(app.ctx, c.ID); err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Removed %s\n", c.ID)
	return nil
}

// CatalogDigestCmd prints the catalog digest.
type CatalogDigestCmd struct{}

func (c *CatalogDigestCmd) Run(app *App) error {
	reg, err := app.Registry()
	if err != nil {
		return err
	}
	digest, err := reg.Digest()
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, digest)
	return nil
}

// CatalogInstrumentsCmd lists the instrument templates.
type CatalogInstrumentsCmd struct{}

func (c *CatalogInstrumentsCmd) Run(app *App) error {
	reg, err := app.Registry()
	if err != nil {
		return err
	}
	catalog := reg.Env().Instruments
	fmt.Fprintln(app.out, "Families")
	for _, f := range catalog.Families() {
		fmt.Fprintf(app.out, "  %-22s %s\n", f.ID, f.Name)
	}
	for _, g := range catalog.Groups() {
		fmt.Fprintf(app.out, "%s\n", g.Name)
		for _, t := range g.Templates {
			ii, _ := catalog.Lookup(t.ID)
			family := t.FamilyID()
			if family == "" {
				family = "-"
			}
			fmt.Fprintf(app.out, "  %3d %-20s %-22s %d\n", ii.Rank, t.ID, family, t.Staves())
		}
	}
	return nil
}

// SettingsShowCmd prints the configuration after file, environment and
// flag overrides.
type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(app *App) error {
	enc := yaml.NewEncoder(app.out)
	enc.SetIndent(2)
	if err := enc.Encode(app.cfg); err != nil {
		return err
	}
	return enc.Close()
}

// SettingsSaveCmd writes the effective configuration as TOML.
type SettingsSaveCmd struct {
	Out string `short:"o" help:"Output file (default ~/.config/scoreorder/config.toml)" type:"path"`
}

func (c *SettingsSaveCmd) Run(app *App) error {
	path := c.Out
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := config.Save(path, app.cfg); err != nil {
		return err
	}
	logging.InfoContext(app.ctx, "configuration saved", "path", path)
	fmt.Fprintf(app.out, "Wrote configuration to %s\n", path)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(app.out, "scoreorder %s\n", version)
	fmt.Fprintf(app.out, "sqlite driver: %s (%s)\n", info.Package, info.DriverType)
	return nil
}
