package block

import (
	"testing"

	"github.com/matzehuels/vizdeck/pkg/errors"
)

func TestResolveKind(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Kind
		wantErr bool
	}{
		{"source", "source", KindSource, false},
		{"style", "style", KindStyle, false},
		{"config", "config", KindConfig, false},
		{"params", "params", KindParams, false},
		{"chart", "chart", KindChart, false},
		{"empty defaults to chart", "", KindChart, false},
		{"case insensitive", "SOURCE", KindSource, false},
		{"mixed case", "Chart", KindChart, false},
		{"surrounding whitespace", "  style ", KindStyle, false},
		{"unknown", "tabel", "", true},
		{"unknown with spaces", "data source", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveKind(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, errors.ErrCodeUnknownBlockKind) {
					t.Errorf("error code = %s, want UNKNOWN_BLOCK_KIND", errors.GetCode(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveKind(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	blocks := []Block{
		NewBlock("source", "s1"),
		NewBlock("bogus", ""),
		NewBlock("", ""),
	}

	classified := Classify(blocks)
	if len(classified) != 3 {
		t.Fatalf("len = %d, want 3", len(classified))
	}

	if classified[0].Err != nil || classified[0].Resolved != KindSource {
		t.Errorf("block 0: resolved = %s, err = %v", classified[0].Resolved, classified[0].Err)
	}

	// Invalid kind is scoped to its block; siblings still classify.
	if classified[1].Err == nil {
		t.Error("block 1 should carry an error")
	}
	if classified[2].Err != nil || classified[2].Resolved != KindChart {
		t.Errorf("block 2 should default to chart, got %s err %v", classified[2].Resolved, classified[2].Err)
	}

	// Index tracks document position.
	for i, c := range classified {
		if c.Index != i {
			t.Errorf("block %d: Index = %d", i, c.Index)
		}
	}
}

func TestClassifyNilAttrs(t *testing.T) {
	classified := Classify([]Block{{Kind: "chart"}})
	if classified[0].Attrs == nil {
		t.Error("Classify should initialize nil Attrs")
	}
}

func TestIsVisual(t *testing.T) {
	tests := []struct {
		kind string
		want bool
	}{
		{"chart", true},
		{"params", true},
		{"source", false},
		{"style", false},
		{"config", false},
	}
	for _, tt := range tests {
		c := Classify([]Block{NewBlock(tt.kind, "")})[0]
		if got := c.IsVisual(); got != tt.want {
			t.Errorf("IsVisual(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}
