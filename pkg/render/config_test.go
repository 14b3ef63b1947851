package render

import (
	"testing"

	"github.com/matzehuels/vizdeck/pkg/block"
	"github.com/matzehuels/vizdeck/pkg/errors"
)

func pieConfig() *Config {
	return &Config{
		Type: "pie",
		Attrs: block.AttrsFrom(
			"visualize", block.AttrsFrom("type", "pie", "value", "amount", "label", "region"),
		),
		Style:   block.AttrsFrom("palette", []any{"#ff0000", "#00ff00"}),
		ColSpan: 12,
	}
}

func TestConfigField(t *testing.T) {
	cfg := pieConfig()
	if got := cfg.Field("value"); got != "amount" {
		t.Errorf("Field(value) = %q", got)
	}
	if got := cfg.Field("missing"); got != "" {
		t.Errorf("Field(missing) = %q", got)
	}

	f, err := cfg.RequireField("label")
	if err != nil || f != "region" {
		t.Errorf("RequireField = %q, %v", f, err)
	}
	if _, err := cfg.RequireField("nope"); !errors.Is(err, errors.ErrCodeMissingRequiredConfig) {
		t.Errorf("RequireField missing: err = %v", err)
	}
}

func TestConfigPalette(t *testing.T) {
	cfg := pieConfig()
	p, err := cfg.RequirePalette()
	if err != nil || len(p) != 2 || p[0] != "#ff0000" {
		t.Errorf("RequirePalette = %v, %v", p, err)
	}

	cfg.Style = nil
	if cfg.Palette() != nil {
		t.Error("Palette without style should be nil")
	}
	if _, err := cfg.RequirePalette(); !errors.Is(err, errors.ErrCodeMissingRequiredConfig) {
		t.Errorf("RequirePalette without style: err = %v", err)
	}
}

func TestConfigSetting(t *testing.T) {
	cfg := pieConfig()
	cfg.Settings = block.AttrsFrom("locale", "de-DE")
	cfg.Attrs.Set("locale", "en-US")
	cfg.Attrs.Set("title", "Sales")

	// Named config wins over the block's own attribute.
	if v, _ := cfg.Setting("locale"); v != "de-DE" {
		t.Errorf("Setting(locale) = %v", v)
	}
	// Falls back to block attributes.
	if v, _ := cfg.Setting("title"); v != "Sales" {
		t.Errorf("Setting(title) = %v", v)
	}
	if _, ok := cfg.Setting("missing"); ok {
		t.Error("missing setting should not be found")
	}
}

func TestConfigHashDeterministic(t *testing.T) {
	a, b := pieConfig(), pieConfig()
	if a.Hash() != b.Hash() {
		t.Error("identical configs should hash equally")
	}

	b.ColSpan = 6
	if a.Hash() == b.Hash() {
		t.Error("different configs should hash differently")
	}
}
