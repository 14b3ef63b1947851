package bar

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/vizdeck/pkg/block"
	"github.com/matzehuels/vizdeck/pkg/errors"
	"github.com/matzehuels/vizdeck/pkg/render"
)

func testConfig() *render.Config {
	return &render.Config{
		Type: "bar",
		Attrs: block.AttrsFrom(
			"visualize", block.AttrsFrom("type", "bar", "x", "month", "y", "sales"),
		),
		ColSpan: 12,
	}
}

func TestRender(t *testing.T) {
	data := render.Data{
		{"month": "jan", "sales": 10},
		{"month": "feb", "sales": 20},
		{"month": "mar", "sales": 15},
	}

	c := render.NewContainer(800)
	if err := Render(context.Background(), c, data, testConfig()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	svg := string(c.Bytes())
	if strings.Count(svg, "<rect") != 3 {
		t.Errorf("want 3 bars:\n%s", svg)
	}
	if !strings.Contains(svg, "feb") {
		t.Error("axis labels missing")
	}
	if c.Height() != DefaultHeight {
		t.Errorf("Height = %v", c.Height())
	}
}

func TestRenderMissingFieldMapping(t *testing.T) {
	cfg := &render.Config{
		Type:  "bar",
		Attrs: block.AttrsFrom("visualize", block.AttrsFrom("type", "bar", "x", "month")),
	}
	c := render.NewContainer(800)
	err := Render(context.Background(), c, render.Data{{"month": "jan"}}, cfg)
	if !errors.Is(err, errors.ErrCodeMissingRequiredConfig) {
		t.Fatalf("err = %v, want MISSING_REQUIRED_CONFIG", err)
	}
}

func TestRenderEmptyData(t *testing.T) {
	c := render.NewContainer(800)
	if err := Render(context.Background(), c, nil, testConfig()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	// No bars, but the container still reserves its height.
	if c.Height() != DefaultHeight {
		t.Errorf("Height = %v", c.Height())
	}
}

func TestRenderClearsContainer(t *testing.T) {
	c := render.NewContainer(800)
	c.WriteString("stale")
	_ = Render(context.Background(), c, render.Data{{"month": "jan", "sales": 1}}, testConfig())
	if strings.Contains(string(c.Bytes()), "stale") {
		t.Error("renderer must clear the container first")
	}
}

func TestRenderUsesPalette(t *testing.T) {
	cfg := testConfig()
	cfg.Style = block.AttrsFrom("palette", []any{"#abc123"})
	c := render.NewContainer(800)
	_ = Render(context.Background(), c, render.Data{{"month": "jan", "sales": 5}}, cfg)
	if !strings.Contains(string(c.Bytes()), "#abc123") {
		t.Error("palette colors should be applied to bars")
	}
}
