package assettree

import (
	"fmt"
	"io"
)

// OutlineLine is one row of a rendered tree outline.
type OutlineLine struct {
	Node   Node
	Prefix string // box-drawing prefix, e.g. "├── ", "│   └── "
	Depth  int
}

// Flatten converts the subtree under n into outline rows in pre-order.
func Flatten(n Node) []OutlineLine {
	if !n.Valid() {
		return nil
	}
	return flattenNode(n, "", 0, true, nil)
}

func flattenNode(n Node, parentPrefix string, depth int, isLast bool, result []OutlineLine) []OutlineLine {
	var prefix string
	if depth > 0 {
		if isLast {
			prefix = parentPrefix + "└── "
		} else {
			prefix = parentPrefix + "├── "
		}
	}

	result = append(result, OutlineLine{Node: n, Prefix: prefix, Depth: depth})

	// Build the continuation prefix for children.
	var childPrefix string
	if depth > 0 {
		if isLast {
			childPrefix = parentPrefix + "    "
		} else {
			childPrefix = parentPrefix + "│   "
		}
	}

	children := n.Children()
	for i, child := range children {
		result = flattenNode(child, childPrefix, depth+1, i == len(children)-1, result)
	}
	return result
}

// Outline writes the whole tree, one node per line, with its path.
func (t *Tree) Outline(w io.Writer) error {
	for _, line := range Flatten(t.Root()) {
		if _, err := fmt.Fprintf(w, "%s%s  [%s]\n", line.Prefix, line.Node.Identifier(), line.Node.Path()); err != nil {
			return err
		}
	}
	return nil
}
