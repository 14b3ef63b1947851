package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/vizdeck/pkg/block"
	"github.com/matzehuels/vizdeck/pkg/errors"
	"github.com/matzehuels/vizdeck/pkg/render"
)

func edgeData() render.Data {
	return render.Data{
		{"from": "ingest", "to": "transform"},
		{"from": "transform", "to": "publish"},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(edgeData(), "from", "to")

	if !strings.HasPrefix(dot, "digraph G {") {
		t.Errorf("unexpected DOT header:\n%s", dot)
	}
	for _, want := range []string{`"ingest"`, `"transform"`, `"publish"`, `"ingest" -> "transform"`, `"transform" -> "publish"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s:\n%s", want, dot)
		}
	}

	// Deterministic for identical input.
	if dot != ToDOT(edgeData(), "from", "to") {
		t.Error("ToDOT should be deterministic")
	}
}

func TestToDOTSkipsIncompleteRows(t *testing.T) {
	data := render.Data{
		{"from": "a", "to": "b"},
		{"from": "a"},          // missing to
		{"to": "b"},            // missing from
		{"from": "", "to": ""}, // empty
	}
	dot := ToDOT(data, "from", "to")
	if got := strings.Count(dot, "->"); got != 1 {
		t.Errorf("edges = %d, want 1:\n%s", got, dot)
	}
}

func TestRenderMissingFieldMapping(t *testing.T) {
	cfg := &render.Config{
		Type:  "flow",
		Attrs: block.AttrsFrom("visualize", block.AttrsFrom("type", "flow")),
	}
	c := render.NewContainer(800)
	err := Render(context.Background(), c, edgeData(), cfg)
	if !errors.Is(err, errors.ErrCodeMissingRequiredConfig) {
		t.Fatalf("err = %v, want MISSING_REQUIRED_CONFIG", err)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := `<?xml version="1.0"?><svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`
	out := normalizeViewBox(in)
	if !strings.Contains(out, `width="100%" height="100%"`) {
		t.Errorf("viewBox not normalized:\n%s", out)
	}

	// Input without a viewBox passes through unchanged.
	plain := `<svg><g/></svg>`
	if normalizeViewBox(plain) != plain {
		t.Error("input without viewBox should pass through")
	}
}
