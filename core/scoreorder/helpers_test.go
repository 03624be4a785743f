package scoreorder

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/ScoreOrder/core/score"
	"github.com/FocuswithJustin/ScoreOrder/core/xml"
)

// defaultRegistry returns a registry with the built-in catalog loaded.
func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(NewEnv(nil))
	if err := r.LoadDefault(); err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	return r
}

// buildScore adds one part per id. A trailing "*" marks a soloist.
func buildScore(env *Env, ids ...string) *score.Score {
	s := score.New("test")
	for _, id := range ids {
		soloist := strings.HasSuffix(id, "*")
		id = strings.TrimSuffix(id, "*")
		s.AddPart(id, soloist, env.Instruments.StaffCount(id))
	}
	return s
}

// readOrder parses a single Order element.
func readOrder(t *testing.T, env *Env, src string) *Order {
	t.Helper()
	doc, err := xml.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return ReadOrder(env, doc.Root())
}

func mustFind(t *testing.T, r *Registry, id string) *Order {
	t.Helper()
	o := r.FindByID(id)
	if o == nil {
		t.Fatalf("FindByID(%q) = nil", id)
	}
	return o
}

func ids(orders []*Order) []string {
	var out []string
	for _, o := range orders {
		out = append(out, o.ID())
	}
	return out
}
