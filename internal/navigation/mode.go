// Package navigation tracks the current position in an asset tree and turns
// it into load requests and placements.
package navigation

import (
	"github.com/smileynet/meshbrowse/internal/assettree"
)

// ModeKind says how a tree position is displayed.
type ModeKind int

const (
	ModeNone ModeKind = iota // Position is absent.
	ModeLeaf                 // One asset, camera free to orbit.
	ModeGrid                 // Several assets laid out, camera fixed.
)

func (k ModeKind) String() string {
	switch k {
	case ModeLeaf:
		return "leaf"
	case ModeGrid:
		return "grid"
	default:
		return "none"
	}
}

// GridItem is one selectable entry of a grid: the child's index in its
// parent's list and the child's identifier.
type GridItem struct {
	Index      int
	Identifier string
}

// RenderMode is the display decision for one node.
type RenderMode struct {
	Kind  ModeKind
	Leaf  string     // set for ModeLeaf
	Items []GridItem // set for ModeGrid, in child order
}

// RenderModeFor decides how n is shown:
//   - no children: the node's own asset;
//   - exactly one child that is itself a leaf: that child's asset, rather
//     than a one-item grid;
//   - otherwise: every direct child, in order, as a grid.
//
// An absent node yields ModeNone.
func RenderModeFor(n assettree.Node) RenderMode {
	if !n.Valid() {
		return RenderMode{}
	}

	switch n.ChildCount() {
	case 0:
		return RenderMode{Kind: ModeLeaf, Leaf: n.Identifier()}
	case 1:
		if only, _ := n.Child(0); only.IsLeaf() {
			return RenderMode{Kind: ModeLeaf, Leaf: only.Identifier()}
		}
	}

	children := n.Children()
	items := make([]GridItem, len(children))
	for i, child := range children {
		items[i] = GridItem{Index: i, Identifier: child.Identifier()}
	}
	return RenderMode{Kind: ModeGrid, Items: items}
}
