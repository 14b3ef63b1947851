// Package block defines the declarative block model that Vizdeck documents
// are composed of, and the classifier that resolves each block's kind.
//
// A document is an ordered sequence of blocks. Each block carries a kind
// (source, style, config, params, or chart), an optional name, and an
// ordered attribute tree produced by an external parser.
package block

import (
	"strings"

	"github.com/matzehuels/vizdeck/pkg/errors"
)

// Kind identifies what role a block plays in a document.
type Kind string

// The five block kinds. Anything without an explicit kind is a chart.
const (
	KindSource Kind = "source"
	KindStyle  Kind = "style"
	KindConfig Kind = "config"
	KindParams Kind = "params"
	KindChart  Kind = "chart"
)

// Kinds lists all valid kinds in registration-pass order.
var Kinds = []Kind{KindSource, KindStyle, KindConfig, KindParams, KindChart}

// Block is one declarative unit of a document, as produced by the external
// markup parser. Kind is the raw, possibly-empty kind string; use Classify
// to resolve it.
type Block struct {
	Kind  string // raw kind string, case-insensitive, may be empty
	Name  string // optional registered name (sources, styles, configs)
	Attrs *Attrs // ordered attribute tree, never nil after NewBlock
}

// NewBlock creates a block with an empty attribute tree.
func NewBlock(kind, name string) Block {
	return Block{Kind: kind, Name: name, Attrs: NewAttrs()}
}

// ResolveKind maps a raw kind string to a Kind. Matching is
// case-insensitive and surrounding whitespace is ignored. An empty kind
// resolves to KindChart. Unknown values return UNKNOWN_BLOCK_KIND.
func ResolveKind(raw string) (Kind, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return KindChart, nil
	}
	for _, k := range Kinds {
		if s == string(k) {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnknownBlockKind, "unknown block kind %q", raw)
}

// Classified is a block annotated with its resolved kind. Err is non-nil
// when the raw kind was invalid; the block is then skipped by both passes
// but classification of sibling blocks continues.
type Classified struct {
	Block
	Index    int  // position in the document
	Resolved Kind // valid only when Err is nil
	Err      error
}

// IsVisual reports whether the block renders output in pass 2.
func (c Classified) IsVisual() bool {
	return c.Err == nil && (c.Resolved == KindChart || c.Resolved == KindParams)
}

// Classify resolves the kind of every block in document order. It never
// fails as a whole: a block with an invalid kind gets a per-block error
// and siblings are classified normally.
func Classify(blocks []Block) []Classified {
	out := make([]Classified, len(blocks))
	for i, b := range blocks {
		if b.Attrs == nil {
			b.Attrs = NewAttrs()
		}
		kind, err := ResolveKind(b.Kind)
		out[i] = Classified{Block: b, Index: i, Resolved: kind, Err: err}
	}
	return out
}
