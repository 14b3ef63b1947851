package cli

import (
	"github.com/matzehuels/vizdeck/pkg/render"
	"github.com/matzehuels/vizdeck/pkg/render/bar"
	"github.com/matzehuels/vizdeck/pkg/render/flow"
	"github.com/matzehuels/vizdeck/pkg/render/line"
	"github.com/matzehuels/vizdeck/pkg/render/pie"
)

// DefaultRenderers returns a registry with the built-in chart types.
// Registration lives at this boundary layer on purpose; the engine core
// never owns an ambient default registry.
func DefaultRenderers() *render.Registry {
	r := render.NewRegistry()
	mustRegister := func(name string, fn render.RendererFunc) {
		if err := r.Register(name, fn); err != nil {
			panic(err)
		}
	}
	mustRegister("pie", pie.Render)
	mustRegister("donut", pie.RenderDonut)
	mustRegister("bar", bar.Render)
	mustRegister("line", line.Render)
	mustRegister("flow", flow.Render)
	return r
}
