package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/ScoreOrder/core/errors"
	"github.com/FocuswithJustin/ScoreOrder/core/scoreorder"
	"github.com/FocuswithJustin/ScoreOrder/core/sqlite"
)

type testEnv struct {
	dir   string
	store string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("SCOREORDER_CONFIG", "")
	return &testEnv{dir: dir, store: filepath.Join(dir, "orders.db")}
}

func (e *testEnv) writeScore(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write score: %v", err)
	}
	return path
}

// run executes the CLI with the test store and returns standard output.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append([]string{"--store", e.store}, args...)
	err := run(args, &out, &errOut)
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("run(%v) error = %v", args, err)
	}
	return out
}

const orchestralScore = `
# small orchestra
score "Overture"
part flute
part flute
part horn
part soprano
part violin
part violoncello
`

func TestOrdersList(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun(t, "orders", "list")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("orders list printed %d lines:\n%s", len(lines), out)
	}
	for i, id := range []string{"orchestra", "concert-band", "choir", scoreorder.CustomID} {
		if !strings.Contains(lines[i], id) {
			t.Errorf("line %d = %q, want %s", i, lines[i], id)
		}
	}
}

func TestOrdersListLocale(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun(t, "--locale", "de", "orders", "list")
	if !strings.Contains(out, "Orchester") || !strings.Contains(out, "Benutzerdefiniert") {
		t.Errorf("names not translated:\n%s", out)
	}
}

func TestOrdersShow(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun(t, "orders", "show", "concert-band")
	if !strings.Contains(out, "contrabass => tubas") {
		t.Errorf("text output missing override:\n%s", out)
	}

	out = e.mustRun(t, "orders", "show", "Choir", "--format", "yaml")
	var summary scoreorder.Summary
	if err := yaml.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("yaml output does not parse: %v\n%s", err, out)
	}
	if summary.ID != "choir" || len(summary.Groups) == 0 {
		t.Errorf("summary = %+v", summary)
	}

	out = e.mustRun(t, "orders", "show", "orchestra", "--format", "json")
	if !strings.Contains(out, `"group_multiplier"`) {
		t.Errorf("json output:\n%s", out)
	}

	_, err := e.run(t, "orders", "show", "missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("show missing error = %v, want ErrNotFound", err)
	}
}

func TestOrdersExport(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun(t, "orders", "export")
	if !strings.HasPrefix(out, "<?xml") || !strings.Contains(out, `<Order id="orchestra"`) {
		t.Errorf("export output:\n%s", out)
	}

	path := filepath.Join(e.dir, "export", "orders.xml.xz")
	e.mustRun(t, "orders", "export", "--out", path)
	out = e.mustRun(t, "--order-catalog", path, "orders", "list")
	if strings.Count(out, "\n") != 4 {
		t.Errorf("re-importing the export changed the order list:\n%s", out)
	}
}

func TestClassify(t *testing.T) {
	e := newTestEnv(t)
	path := e.writeScore(t, "overture.score", orchestralScore)

	out := e.mustRun(t, "classify", path)
	if !strings.Contains(out, "orchestra") || strings.Contains(out, "choir") {
		t.Errorf("classify output:\n%s", out)
	}

	out = e.mustRun(t, "classify", "--prefixes", path)
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 6 {
		t.Errorf("classify --prefixes printed %d lines:\n%s", len(lines), out)
	}
}

func TestCheck(t *testing.T) {
	e := newTestEnv(t)
	good := e.writeScore(t, "good.score", orchestralScore)
	bad := e.writeScore(t, "bad.score", "part violin\npart flute\n")

	out := e.mustRun(t, "check", "orchestra", good)
	if !strings.Contains(out, "follows Orchestral") {
		t.Errorf("check output:\n%s", out)
	}

	_, err := e.run(t, "check", "Orchestral", bad)
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("check bad error = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "part 2 (flute)") {
		t.Errorf("error does not name the misplaced part: %v", err)
	}
}

func TestSortKeys(t *testing.T) {
	e := newTestEnv(t)
	path := e.writeScore(t, "keys.score", "part flute\npart recorder\npart violin soloist\n")

	out := e.mustRun(t, "sort-keys", "orchestra", path)
	for _, want := range []string{"woodwind/flutes", "woodwind/<unsorted>[woodwinds]", "violin (soloist)", "<soloists>"} {
		if !strings.Contains(out, want) {
			t.Errorf("sort-keys output missing %q:\n%s", want, out)
		}
	}
}

func TestLayout(t *testing.T) {
	e := newTestEnv(t)
	path := e.writeScore(t, "layout.score", "part flute\npart flute\npart violin\n")

	out := e.mustRun(t, "layout", "orchestra", path)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("layout printed %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "normal[col=0 span=2]") || !strings.Contains(lines[0], "|") {
		t.Errorf("first staff = %q", lines[0])
	}

	out = e.mustRun(t, "layout", "--commands", scoreorder.CustomID, path)
	if strings.TrimSpace(out) != "No changes" {
		t.Errorf("custom layout output:\n%s", out)
	}
}

func TestCustomizeAndStore(t *testing.T) {
	e := newTestEnv(t)
	path := e.writeScore(t, "band.score", "part violoncello\npart tuba\n")

	if _, err := e.run(t, "check", "concert-band", path); err == nil {
		t.Fatal("violoncello before tuba accepted before customizing")
	}

	out := e.mustRun(t, "customize", "concert-band", "--move", "violoncello=flutes")
	if !strings.Contains(out, "Concert Band (Customized)") {
		t.Fatalf("customize output:\n%s", out)
	}
	id := strings.TrimSpace(out[strings.LastIndex(out, " as ")+4:])

	out = e.mustRun(t, "orders", "list")
	if !strings.Contains(out, id) {
		t.Errorf("stored order not listed:\n%s", out)
	}
	e.mustRun(t, "check", id, path)

	out = e.mustRun(t, "custom", "list")
	if !strings.Contains(out, id) {
		t.Errorf("custom list:\n%s", out)
	}
	e.mustRun(t, "custom", "remove", id)
	if _, err := e.run(t, "custom", "remove", id); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second remove error = %v, want ErrNotFound", err)
	}
}

func TestCustomizeErrors(t *testing.T) {
	e := newTestEnv(t)
	for _, args := range [][]string{
		{"customize", "orchestra", "--move", "violin"},
		{"customize", "orchestra", "--move", "violin= strings"},
		{"customize", "orchestra", "--move", "theremin=strings"},
		{"customize", scoreorder.CustomID},
	} {
		if _, err := e.run(t, args...); err == nil {
			t.Errorf("run(%v) error = nil", args)
		}
	}
}

func TestCustomizeDryRun(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun(t, "customize", "choir", "--move", "piano=voices", "--dry-run")
	if !strings.Contains(out, `customized="1"`) || !strings.Contains(out, `<family id="voices">Voices</family>`) {
		t.Errorf("dry run output:\n%s", out)
	}
	if out := e.mustRun(t, "custom", "list"); !strings.Contains(out, "No customized orders") {
		t.Errorf("dry run stored an order:\n%s", out)
	}
}

func TestCatalogDigest(t *testing.T) {
	e := newTestEnv(t)
	first := strings.TrimSpace(e.mustRun(t, "catalog", "digest"))
	second := strings.TrimSpace(e.mustRun(t, "--no-store", "catalog", "digest"))
	if len(first) != 64 || first != second {
		t.Errorf("digests %q and %q", first, second)
	}
}

func TestCatalogInstruments(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun(t, "catalog", "instruments")
	if !strings.Contains(out, "piccolo") || !strings.Contains(out, "Woodwinds") ||
		!strings.Contains(out, "Families") || !strings.Contains(out, "orchestral-strings") {
		t.Errorf("instruments output:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun(t, "version")
	if !strings.Contains(out, "scoreorder "+version) || !strings.Contains(out, "sqlite driver") {
		t.Errorf("version output:\n%s", out)
	}
}

func TestConfigFile(t *testing.T) {
	e := newTestEnv(t)
	cfg := filepath.Join(e.dir, "config.toml")
	if err := os.WriteFile(cfg, []byte("locale = \"fr\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out := e.mustRun(t, "--config", cfg, "orders", "list")
	if !strings.Contains(out, "Personnalisé") {
		t.Errorf("config locale not applied:\n%s", out)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	e := newTestEnv(t)
	cfg := filepath.Join(e.dir, "env.toml")
	if err := os.WriteFile(cfg, []byte("locale = \"de\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCOREORDER_CONFIG", cfg)

	out := e.mustRun(t, "orders", "list")
	if !strings.Contains(out, "Benutzerdefiniert") {
		t.Errorf("SCOREORDER_CONFIG not applied:\n%s", out)
	}

	t.Setenv("SCOREORDER_CONFIG", filepath.Join(e.dir, "missing.toml"))
	if _, err := e.run(t, "orders", "list"); err == nil {
		t.Error("missing SCOREORDER_CONFIG file accepted")
	}
}

func TestSettingsSaveAndShow(t *testing.T) {
	e := newTestEnv(t)
	path := filepath.Join(e.dir, "saved", "config.toml")
	e.mustRun(t, "--locale", "fr", "settings", "save", "--out", path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("saved config missing: %v", err)
	}
	if !strings.Contains(string(data), "fr") {
		t.Errorf("saved config:\n%s", data)
	}

	out := e.mustRun(t, "--config", path, "settings", "show")
	var shown struct {
		Locale string `yaml:"locale"`
	}
	if err := yaml.Unmarshal([]byte(out), &shown); err != nil || shown.Locale != "fr" {
		t.Errorf("settings show = %q, %v", out, err)
	}
}

func customizeBand(t *testing.T, e *testEnv) string {
	t.Helper()
	out := e.mustRun(t, "customize", "concert-band", "--move", "violoncello=flutes")
	return strings.TrimSpace(out[strings.LastIndex(out, " as ")+4:])
}

func TestCustomShow(t *testing.T) {
	e := newTestEnv(t)
	if _, err := e.run(t, "custom", "show", "concert-band-x"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("show without database error = %v, want ErrNotFound", err)
	}

	id := customizeBand(t, e)
	out := e.mustRun(t, "custom", "show", id)
	if !strings.Contains(out, `<Order id="concert-band" customized="1"`) || !strings.Contains(out, `<instrument id="violoncello">`) {
		t.Errorf("custom show output:\n%s", out)
	}
	if _, err := e.run(t, "custom", "show", id+"-missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("show missing error = %v, want ErrNotFound", err)
	}
}

func TestCustomListCorruptRow(t *testing.T) {
	e := newTestEnv(t)
	id := customizeBand(t, e)

	db, err := sqlite.Open(e.store)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE orders SET digest = 'bad' WHERE id = ?", id); err != nil {
		t.Fatal(err)
	}
	db.Close()

	out := e.mustRun(t, "custom", "list")
	if !strings.Contains(out, id) || !strings.Contains(out, " bad") {
		t.Errorf("custom list with corrupt row:\n%s", out)
	}
	if out := e.mustRun(t, "orders", "list"); strings.Contains(out, id) {
		t.Errorf("order with corrupt digest was loaded:\n%s", out)
	}
}
