// Command scoreorder inspects score orders, checks and lays out scores
// against them, and manages customized orders.
package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/ScoreOrder/core/errors"
	"github.com/FocuswithJustin/ScoreOrder/core/instruments"
	"github.com/FocuswithJustin/ScoreOrder/core/score"
	"github.com/FocuswithJustin/ScoreOrder/core/scoreorder"
	"github.com/FocuswithJustin/ScoreOrder/internal/config"
	"github.com/FocuswithJustin/ScoreOrder/internal/logging"
	"github.com/FocuswithJustin/ScoreOrder/internal/store"
)

const version = "0.1.0"

// Globals are the flags shared by every command. They override the
// configuration file and environment.
type Globals struct {
	Config            string `help:"Configuration file (default $SCOREORDER_CONFIG or ~/.config/scoreorder/config.toml)" type:"path"`
	OrderCatalog      string `help:"Extra score order catalog merged over the built-in one (.xml or .xml.xz)" type:"path"`
	InstrumentCatalog string `help:"Instrument template catalog replacing the built-in one" type:"path"`
	Store             string `help:"Database of customized orders" type:"path"`
	NoStore           bool   `help:"Ignore the customized order database"`
	LogLevel          string `help:"Log level (debug, info, warn, error)"`
	LogFormat         string `help:"Log format (text, json)"`
	Locale            string `help:"Language of order names, e.g. de or fr"`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Orders    OrdersGroup   `cmd:"" help:"List, show and export score orders"`
	Classify  ClassifyCmd   `cmd:"" help:"List the orders a score is sorted by"`
	Check     CheckCmd      `cmd:"" help:"Check that a score follows an order"`
	SortKeys  SortKeysCmd   `cmd:"" name:"sort-keys" help:"Print the sort key of every part"`
	Layout    LayoutCmd     `cmd:"" help:"Derive brackets and barline spans for a score"`
	Customize CustomizeCmd  `cmd:"" help:"Create a customized copy of an order"`
	Custom    CustomGroup   `cmd:"" help:"Manage stored customized orders"`
	Catalog   CatalogGroup  `cmd:"" help:"Catalog maintenance"`
	Settings  SettingsGroup `cmd:"" help:"Show and save the effective configuration"`
	Version   VersionCmd    `cmd:"" help:"Print version information"`
}

// App carries the state commands share: configuration, the order registry
// and the store. The registry and store are opened on first use.
type App struct {
	ctx     context.Context
	globals *Globals
	out     io.Writer
	cfg     config.Config

	registry *scoreorder.Registry
	store    *store.Store
	reader   *store.Store
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func newApp(ctx context.Context, g *Globals, out, errOut io.Writer) (*App, error) {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return nil, err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Catalog.Orders, g.OrderCatalog)
	override(&cfg.Catalog.Instruments, g.InstrumentCatalog)
	override(&cfg.Store.Path, g.Store)
	override(&cfg.Log.Level, g.LogLevel)
	override(&cfg.Log.Format, g.LogFormat)
	override(&cfg.Locale, g.Locale)

	logging.InitLoggerTo(errOut, logging.ParseLevel(cfg.Log.Level), logging.ParseFormat(cfg.Log.Format))
	return &App{ctx: ctx, globals: g, out: out, cfg: cfg}, nil
}

// Registry returns the order registry: the built-in catalog, the configured
// extra catalog and, unless disabled, the stored customized orders.
func (a *App) Registry() (*scoreorder.Registry, error) {
	if a.registry != nil {
		return a.registry, nil
	}

	catalog := instruments.Default()
	if path := a.cfg.Catalog.Instruments; path != "" {
		c, err := instruments.Load(path)
		if err != nil {
			return nil, err
		}
		catalog = c
	}
	env := scoreorder.NewEnv(catalog)
	env.Language = scoreorder.ParseLanguage(a.cfg.Locale)

	reg := scoreorder.NewRegistry(env)
	if err := reg.LoadDefault(); err != nil {
		return nil, err
	}
	if path := a.cfg.Catalog.Orders; path != "" {
		if err := reg.Load(path); err != nil {
			return nil, err
		}
	}
	if !a.globals.NoStore {
		st, err := a.storeReader()
		if err != nil {
			return nil, err
		}
		if st != nil {
			n, err := st.LoadInto(a.ctx, reg)
			if err != nil {
				return nil, err
			}
			logging.LoggerFromContext(a.ctx).Debug("customized orders loaded", "count", n, "path", st.Path())
		}
	}
	a.registry = reg
	return reg, nil
}

// storeReader opens the customized order database for reading. It returns
// the writable store when one is open, and nil when no database exists yet.
func (a *App) storeReader() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if a.reader != nil {
		return a.reader, nil
	}
	st, err := store.OpenReadOnly(a.cfg.Store.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.reader = st
	return st, nil
}

// Store opens the customized order database for writing, creating it if
// needed.
func (a *App) Store() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// Close releases the store handles.
func (a *App) Close() error {
	var err error
	for _, st := range []*store.Store{a.reader, a.store} {
		if st == nil {
			continue
		}
		if cerr := st.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// order resolves an order by id, then by display name.
func (a *App) order(ref string) (*scoreorder.Order, error) {
	reg, err := a.Registry()
	if err != nil {
		return nil, err
	}
	if o := reg.FindByID(ref); o != nil {
		return o, nil
	}
	if o := reg.FindByName(ref, false); o != nil {
		return o, nil
	}
	return nil, errors.NewNotFound("order", ref)
}

// score reads a score description and builds it with the registry's
// template catalog.
func (a *App) score(path string) (*score.Score, error) {
	reg, err := a.Registry()
	if err != nil {
		return nil, err
	}
	d, err := score.LoadDescription(path)
	if err != nil {
		return nil, err
	}
	return d.Build(reg.Env().Instruments.StaffCount), nil
}

func run(args []string, out, errOut io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("scoreorder"),
		kong.Description("Score order catalog and layout tool"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(out, errOut),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx := logging.WithCommand(context.Background(), kctx.Command())
	app, err := newApp(ctx, &cli.Globals, out, errOut)
	if err != nil {
		return err
	}
	defer app.Close()
	if err := kctx.Run(app); err != nil {
		logging.ErrorContext(ctx, "command failed", "error", err)
		return err
	}
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "scoreorder: %v\n", err)
		os.Exit(1)
	}
}
