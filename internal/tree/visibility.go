package tree

// Visibility of a node, as decided by filters and the visible date range.
type Visibility int8

const (
	NotVisible       Visibility = iota // filtered out
	VisibleToMapOnly                   // shown on the map but not on the tree
	Visible                            // contributes to diversity computations
)

// String returns a short name for the visibility value.
func (v Visibility) String() string {
	switch v {
	case NotVisible:
		return "not_visible"
	case VisibleToMapOnly:
		return "visible_to_map_only"
	case Visible:
		return "visible"
	default:
		return "unknown"
	}
}

// AllVisible returns a mask marking n nodes visible.
func AllVisible(n int) []Visibility {
	mask := make([]Visibility, n)
	for i := range mask {
		mask[i] = Visible
	}
	return mask
}

// IsVisible returns true if the node is marked Visible in the mask.
// Nodes outside the mask are not visible.
func IsVisible(mask []Visibility, n *Node) bool {
	return n.ArrayIdx >= 0 && n.ArrayIdx < len(mask) && mask[n.ArrayIdx] == Visible
}

// Hide returns a copy of mask with the named nodes, and everything below
// them, marked NotVisible.
func Hide(nodes []*Node, mask []Visibility, names ...string) []Visibility {
	out := make([]Visibility, len(mask))
	copy(out, mask)
	for _, name := range names {
		if n := Find(nodes, name); n != nil {
			hideSubtree(n, out)
		}
	}
	return out
}

func hideSubtree(n *Node, mask []Visibility) {
	if n.ArrayIdx >= 0 && n.ArrayIdx < len(mask) {
		mask[n.ArrayIdx] = NotVisible
	}
	for _, c := range n.Children {
		hideSubtree(c, mask)
	}
}
