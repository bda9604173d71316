package assettree

import (
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"
)

// Format selects the serialization of a tree description.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	default:
		return "json"
	}
}

// FormatFromPath picks a format from a file name or URL extension.
// Anything that is not .yaml or .yml is treated as JSON.
func FormatFromPath(name string) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes data in the given format and builds a tree from it.
// Depth is enforced before any recursive decoding happens.
func Parse(data []byte, format Format, opts ...BuildOption) (*Tree, error) {
	o := newBuildOptions(opts)

	var (
		desc Description
		err  error
	)
	switch format {
	case FormatYAML:
		desc, err = decodeYAML(data, o.maxDepth)
	default:
		desc, err = decodeJSON(data, o.maxDepth)
	}
	if err != nil {
		return nil, err
	}
	return Build(desc, opts...)
}

// rawNode mirrors Description with pointers so that missing fields can be
// told apart from empty ones. "url" is accepted as an alias of "identifier".
type rawNode struct {
	Identifier *string   `json:"identifier"`
	URL        *string   `json:"url"`
	Children   []rawNode `json:"children"`
}

func decodeJSON(data []byte, maxDepth int) (Description, error) {
	// A node at depth d sits inside 2d-1 brackets: its object plus one
	// children array per ancestor.
	if nesting := jsonNesting(data); (nesting+1)/2 > maxDepth {
		return Description{}, depthError(maxDepth, FormatJSON)
	}

	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return Description{}, malformed(FormatJSON, "invalid tree description", nil, err)
	}
	return raw.description(nil)
}

func (r rawNode) description(path Path) (Description, error) {
	id := r.Identifier
	if id == nil {
		id = r.URL
	}
	if id == nil {
		return Description{}, malformed(FormatJSON, "missing identifier", path, nil)
	}

	desc := Description{Identifier: *id}
	if len(r.Children) > 0 {
		desc.Children = make([]Description, len(r.Children))
		for i, c := range r.Children {
			child, err := c.description(path.Child(i))
			if err != nil {
				return Description{}, err
			}
			desc.Children[i] = child
		}
	}
	return desc, nil
}

// jsonNesting returns the deepest bracket nesting in data, ignoring
// brackets inside strings. It never recurses.
func jsonNesting(data []byte) int {
	var depth, deepest int
	inString, escaped := false, false
	for _, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > deepest {
				deepest = depth
			}
		case '}', ']':
			depth--
		}
	}
	return deepest
}

func decodeYAML(data []byte, maxDepth int) (Description, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Description{}, malformed(FormatYAML, "invalid tree description", nil, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Description{}, malformed(FormatYAML, "empty tree description", nil, nil)
	}
	return yamlDescription(doc.Content[0], nil, 1, maxDepth)
}

func yamlDescription(n *yaml.Node, path Path, depth, maxDepth int) (Description, error) {
	if depth > maxDepth {
		return Description{}, depthError(maxDepth, FormatYAML)
	}
	if n.Kind != yaml.MappingNode {
		return Description{}, malformed(FormatYAML, "tree node must be a mapping", path, nil)
	}

	var (
		desc  Description
		found bool
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "identifier", "url":
			if value.Kind != yaml.ScalarNode || value.Tag != "!!str" {
				return Description{}, malformed(FormatYAML, "identifier must be a string", path, nil)
			}
			if !found || key.Value == "identifier" {
				desc.Identifier = value.Value
			}
			found = true

		case "children":
			if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
				continue
			}
			if value.Kind != yaml.SequenceNode {
				return Description{}, malformed(FormatYAML, "children must be a list", path, nil)
			}
			desc.Children = make([]Description, 0, len(value.Content))
			for ci, c := range value.Content {
				child, err := yamlDescription(c, path.Child(ci), depth+1, maxDepth)
				if err != nil {
					return Description{}, err
				}
				desc.Children = append(desc.Children, child)
			}
		}
	}

	if !found {
		return Description{}, malformed(FormatYAML, "missing identifier", path, nil)
	}
	if len(desc.Children) == 0 {
		desc.Children = nil
	}
	return desc, nil
}

// malformed builds an ErrTypeMalformedInput error. path is tagged when
// non-nil and cause is wrapped when non-nil.
func malformed(format Format, msg string, path Path, cause error) error {
	err := errors.New(msg).
		WithType(ErrTypeMalformedInput).
		WithTag("format", format.String())
	if path != nil {
		err = err.WithTag("path", path.String())
	}
	if cause != nil {
		err = err.Wrap(cause)
	}
	return err
}

func depthError(maxDepth int, format Format) error {
	return errors.New("tree nesting exceeds maximum depth").
		WithType(ErrTypeDepthExceeded).
		WithTag("format", format.String()).
		WithTag("max_depth", maxDepth)
}
