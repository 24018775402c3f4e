package filter

// WalkFunc is called for every node visited by Walk.
// parent is nil for the root. Returning false skips the node's children.
type WalkFunc func(n Node, parent *Group, index, depth int) bool

// Walk visits root and its descendants in pre-order.
func Walk(root *Group, fn WalkFunc) {
	if root == nil {
		return
	}
	walk(root, nil, 0, 0, fn)
}

func walk(n Node, parent *Group, index, depth int, fn WalkFunc) {
	if !fn(n, parent, index, depth) {
		return
	}
	g, ok := n.(*Group)
	if !ok {
		return
	}
	for i, child := range g.Children {
		walk(child, g, i, depth+1, fn)
	}
}

// Count returns the number of groups and conditions under root, root included.
func Count(root *Group) (groups, conditions int) {
	Walk(root, func(n Node, _ *Group, _, _ int) bool {
		switch n.(type) {
		case *Group:
			groups++
		case *Condition:
			conditions++
		}
		return true
	})
	return groups, conditions
}

// Depth returns the maximum nesting depth below root; a lone root is 0.
func Depth(root *Group) int {
	deepest := 0
	Walk(root, func(_ Node, _ *Group, _, depth int) bool {
		if depth > deepest {
			deepest = depth
		}
		return true
	})
	return deepest
}
