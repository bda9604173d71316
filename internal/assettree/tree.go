// Package assettree holds the immutable hierarchy of browsable assets.
//
// Nodes live in a flat arena owned by the Tree. A Node is a lightweight
// reference into that arena and parent links are arena indices, so a child
// never keeps its parent alive and no ownership cycle exists. Once the tree is
// released every Node and Path resolves to absent.
package assettree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Error types returned by Build and Parse. Match them with errors.IsType.
const (
	ErrTypeMalformedInput = "malformed_input"
	ErrTypeDepthExceeded  = "depth_exceeded"
)

// DefaultMaxDepth is the deepest nesting accepted when no option overrides it.
// The root sits at depth 1.
const DefaultMaxDepth = 64

// Description is the serialized shape of a tree: an identifier and an
// ordered, possibly empty, list of children of the same shape.
type Description struct {
	Identifier string        `json:"identifier" yaml:"identifier"`
	Children   []Description `json:"children,omitempty" yaml:"children,omitempty"`
}

// buildOptions configures Build and Parse.
type buildOptions struct {
	maxDepth int
}

// BuildOption configures tree construction.
type BuildOption func(*buildOptions)

// WithMaxDepth sets the deepest nesting Build and Parse accept.
// Values below 1 fall back to DefaultMaxDepth.
func WithMaxDepth(depth int) BuildOption {
	return func(o *buildOptions) {
		if depth >= 1 {
			o.maxDepth = depth
		}
	}
}

func newBuildOptions(opts []BuildOption) buildOptions {
	o := buildOptions{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// nodeData is one arena slot.
type nodeData struct {
	identifier string
	parent     int // -1 for the root
	position   int // index within the parent's children
	depth      int
	children   []int
}

// Tree owns every node of one hierarchy. It is never mutated after Build
// returns, so any number of goroutines may read it. Release must not race
// with readers.
type Tree struct {
	nodes []nodeData
}

// Build constructs a tree from desc. Each child's parent link is set in the
// same step that allocates the child. Nesting deeper than the configured
// maximum fails with ErrTypeDepthExceeded and no tree is returned.
func Build(desc Description, opts ...BuildOption) (*Tree, error) {
	o := newBuildOptions(opts)

	t := &Tree{nodes: []nodeData{{identifier: desc.Identifier, parent: -1, depth: 1}}}

	type pending struct {
		desc  *Description
		index int
	}
	stack := []pending{{desc: &desc, index: 0}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(top.desc.Children) == 0 {
			continue
		}

		depth := t.nodes[top.index].depth + 1
		if depth > o.maxDepth {
			return nil, errors.New("tree nesting exceeds maximum depth").
				WithType(ErrTypeDepthExceeded).
				WithTag("max_depth", o.maxDepth)
		}

		first := len(t.nodes)
		children := make([]int, len(top.desc.Children))
		for i := range top.desc.Children {
			children[i] = first + i
			t.nodes = append(t.nodes, nodeData{
				identifier: top.desc.Children[i].Identifier,
				parent:     top.index,
				position:   i,
				depth:      depth,
			})
		}
		t.nodes[top.index].children = children

		// Push in reverse so children are visited in order.
		for i := len(top.desc.Children) - 1; i >= 0; i-- {
			stack = append(stack, pending{desc: &top.desc.Children[i], index: first + i})
		}
	}

	return t, nil
}

// Root returns the root node. It is absent once the tree is released.
func (t *Tree) Root() Node {
	return Node{tree: t, index: 0}
}

// Len returns the number of nodes, or 0 after release.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Release discards the tree. Every Node and Path obtained from it resolves
// to absent afterwards.
func (t *Tree) Release() {
	t.nodes = nil
}

// Released reports whether Release has been called.
func (t *Tree) Released() bool {
	return t == nil || t.nodes == nil
}

// Resolve returns the node at p, or false if p does not name a node of this
// tree or the tree has been released.
func (t *Tree) Resolve(p Path) (Node, bool) {
	n := t.Root()
	if !n.Valid() {
		return Node{}, false
	}
	for _, i := range p {
		child, ok := n.Child(i)
		if !ok {
			return Node{}, false
		}
		n = child
	}
	return n, true
}

// Node is a non-owning reference to one tree position. The zero Node is
// absent. Methods on an absent node return zero values.
type Node struct {
	tree  *Tree
	index int
}

// Valid reports whether the node still resolves to live tree data.
func (n Node) Valid() bool {
	return n.tree != nil && n.index >= 0 && n.index < len(n.tree.nodes)
}

func (n Node) data() *nodeData {
	if !n.Valid() {
		return nil
	}
	return &n.tree.nodes[n.index]
}

// Identifier returns the asset locator of the node.
func (n Node) Identifier() string {
	if d := n.data(); d != nil {
		return d.identifier
	}
	return ""
}

// ChildCount returns the number of direct children.
func (n Node) ChildCount() int {
	if d := n.data(); d != nil {
		return len(d.children)
	}
	return 0
}

// IsLeaf reports whether the node is live and has no children.
func (n Node) IsLeaf() bool {
	return n.Valid() && n.ChildCount() == 0
}

// Child returns the i-th direct child, or false if i is out of range.
func (n Node) Child(i int) (Node, bool) {
	d := n.data()
	if d == nil || i < 0 || i >= len(d.children) {
		return Node{}, false
	}
	return Node{tree: n.tree, index: d.children[i]}, true
}

// Children returns the direct children in order.
func (n Node) Children() []Node {
	d := n.data()
	if d == nil || len(d.children) == 0 {
		return nil
	}
	out := make([]Node, len(d.children))
	for i, c := range d.children {
		out[i] = Node{tree: n.tree, index: c}
	}
	return out
}

// Parent returns the node that lists n as a child. It returns false for the
// root and for nodes of a released tree.
func (n Node) Parent() (Node, bool) {
	d := n.data()
	if d == nil || d.parent < 0 {
		return Node{}, false
	}
	return Node{tree: n.tree, index: d.parent}, true
}

// Depth returns the nesting level, 1 for the root and 0 when absent.
func (n Node) Depth() int {
	if d := n.data(); d != nil {
		return d.depth
	}
	return 0
}

// Path returns the child indices leading from the root to n.
// The root's path is empty; an absent node's path is nil.
func (n Node) Path() Path {
	if !n.Valid() {
		return nil
	}
	p := make(Path, 0, n.Depth()-1)
	for cur := n; ; {
		parent, ok := cur.Parent()
		if !ok {
			break
		}
		p = append(p, cur.data().position)
		cur = parent
	}
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// Is reports whether n and other refer to the same live node.
func (n Node) Is(other Node) bool {
	return n.Valid() && other.Valid() && n.tree == other.tree && n.index == other.index
}
