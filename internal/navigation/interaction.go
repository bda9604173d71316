package navigation

// InteractionKind enumerates pointer events on grid items.
type InteractionKind int

const (
	Hover InteractionKind = iota
	Leave
	Press
	Release
)

func (k InteractionKind) String() string {
	switch k {
	case Hover:
		return "hover"
	case Leave:
		return "leave"
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

// Interaction is a pointer event aimed at the grid item with the given
// child index.
type Interaction struct {
	Kind  InteractionKind
	Index int
}

// Dispatch routes a pointer event. Hover and Leave toggle the item
// highlight; a Release on the same item as the preceding Press selects it.
// Events are ignored outside grid mode and for indices not in the grid.
func (c *Controller) Dispatch(ev Interaction) {
	if c.mode.Kind != ModeGrid || !c.hasItem(ev.Index) {
		return
	}

	switch ev.Kind {
	case Hover:
		if c.hovered >= 0 && c.hovered != ev.Index {
			c.display.Highlight(c.hovered, false)
		}
		c.hovered = ev.Index
		c.display.Highlight(ev.Index, true)

	case Leave:
		if c.hovered == ev.Index {
			c.hovered = -1
		}
		c.display.Highlight(ev.Index, false)

	case Press:
		c.pressed = ev.Index

	case Release:
		pressed := c.pressed
		c.pressed = -1
		if pressed == ev.Index {
			c.SelectChild(ev.Index)
		}
	}
}

// Hovered returns the highlighted grid item, or -1.
func (c *Controller) Hovered() int {
	return c.hovered
}

func (c *Controller) hasItem(index int) bool {
	for _, item := range c.mode.Items {
		if item.Index == index {
			return true
		}
	}
	return false
}
