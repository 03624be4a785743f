package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/ScoreOrder/core/errors"
)

// isolate points HOME at an empty directory and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("SCOREORDER_CONFIG", "")
	for _, k := range []string{"LOG_LEVEL", "LOG_FORMAT", "LOCALE", "STORE_PATH", "CATALOG_ORDERS", "CATALOG_INSTRUMENTS"} {
		t.Setenv(EnvPrefix+"_"+k, "")
		os.Unsetenv(EnvPrefix + "_" + k)
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Config{
		Store:  StoreConfig{Path: filepath.Join(home, ".local", "share", "scoreorder", "orders.db")},
		Log:    LogConfig{Level: "warn", Format: "text"},
		Locale: "en",
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".config", "scoreorder", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	err := os.WriteFile(path, []byte(`
locale = "de"

[catalog]
orders = "/srv/orders.xml.xz"

[log]
level = "debug"
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCOREORDER_LOG_FORMAT", "json")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Locale != "de" || c.Catalog.Orders != "/srv/orders.xml.xz" {
		t.Errorf("file values not applied: %+v", c)
	}
	if c.Log.Level != "debug" || c.Log.Format != "json" {
		t.Errorf("Log = %+v, want debug/json", c.Log)
	}
}

func TestLoadExplicitConfig(t *testing.T) {
	home := isolate(t)

	t.Setenv("SCOREORDER_CONFIG", filepath.Join(home, "missing.toml"))
	_, err := Load()
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("Load(missing explicit) error = %v, want *errors.IOError", err)
	}

	bad := filepath.Join(home, "bad.toml")
	if err := os.WriteFile(bad, []byte("locale = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCOREORDER_CONFIG", bad)
	_, err = Load()
	var parseErr *errors.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Load(malformed) error = %v, want *errors.ParseError", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "conf", "scoreorder.toml")
	want := Config{
		Catalog: CatalogConfig{Orders: "orders.xml", Instruments: "instruments.xml"},
		Store:   StoreConfig{Path: "/tmp/orders.db"},
		Log:     LogConfig{Level: "info", Format: "json"},
		Locale:  "fr",
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	t.Setenv("SCOREORDER_CONFIG", path)
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
