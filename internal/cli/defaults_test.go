package cli

import "testing"

func TestDefaultRenderers(t *testing.T) {
	r := DefaultRenderers()

	for _, typ := range []string{"pie", "donut", "bar", "line", "flow"} {
		if _, ok := r.Lookup(typ); !ok {
			t.Errorf("Lookup(%q) missing", typ)
		}
	}

	if _, ok := r.Lookup("scatter"); ok {
		t.Error("Lookup(scatter) should miss, no such renderer")
	}
}
