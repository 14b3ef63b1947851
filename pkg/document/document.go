// Package document loads visualization documents from YAML or JSON
// files. A document file is the serialized attribute tree of a block
// list; the parser preserves attribute order so that downstream
// registration and spec fingerprinting stay deterministic.
package document

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/vizdeck/pkg/block"
	"github.com/matzehuels/vizdeck/pkg/errors"
)

// Document is a parsed visualization document.
type Document struct {
	// Title is an optional display title.
	Title string `yaml:"title" validate:"max=200"`

	// Width is an optional canvas width hint in pixels.
	Width float64 `yaml:"width" validate:"omitempty,gt=0"`

	// Blocks are the document's blocks in source order.
	Blocks []block.Block `yaml:"-" validate:"required,min=1"`
}

var validate = validator.New()

// Load reads and parses a document file. YAML and JSON are both
// accepted; JSON documents parse through the YAML decoder.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read document %q", path)
	}
	return Parse(data)
}

// Parse decodes a document from raw bytes and validates it.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSpec, err, "parse document")
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "validate document")
	}
	return &doc, nil
}

// UnmarshalYAML decodes the document header and its block list. Block
// mappings keep their key order in each block's attribute set.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Title  string      `yaml:"title"`
		Width  float64     `yaml:"width"`
		Blocks []yaml.Node `yaml:"blocks"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	d.Title = raw.Title
	d.Width = raw.Width
	d.Blocks = make([]block.Block, 0, len(raw.Blocks))
	for i := range raw.Blocks {
		b, err := decodeBlock(&raw.Blocks[i])
		if err != nil {
			return errors.Wrap(errors.ErrCodeSpec, err, "block %d", i)
		}
		d.Blocks = append(d.Blocks, b)
	}
	return nil
}

// decodeBlock splits a block mapping into its kind, name, and remaining
// ordered attributes.
func decodeBlock(node *yaml.Node) (block.Block, error) {
	var b block.Block
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return b, errors.New(errors.ErrCodeSpec, "block must be a mapping, got %s", nodeKindName(node.Kind))
	}

	rest := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "kind":
			b.Kind = val.Value
		case "name":
			b.Name = val.Value
		default:
			rest.Content = append(rest.Content, key, val)
		}
	}

	attrs := block.NewAttrs()
	if len(rest.Content) > 0 {
		if err := rest.Decode(attrs); err != nil {
			return b, err
		}
	}
	b.Attrs = attrs
	return b, nil
}

func nodeKindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
