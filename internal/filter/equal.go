package filter

// Equal reports whether a and b are structurally equal.
//
// IDs are ignored. Conditions compare field, operator and the Value their
// text yields, so "a, b" and "a,b" are equal under a multi-valued operator
// but not under a single-valued one.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Group:
		y, ok := b.(*Group)
		if !ok || x == nil || y == nil {
			return ok && x == nil && y == nil
		}
		if x.Connector != y.Connector || len(x.Children) != len(y.Children) {
			return false
		}
		for i := range x.Children {
			if !Equal(x.Children[i], y.Children[i]) {
				return false
			}
		}
		return true
	case *Condition:
		y, ok := b.(*Condition)
		if !ok || x == nil || y == nil {
			return ok && x == nil && y == nil
		}
		return x.Field == y.Field &&
			x.Operator == y.Operator &&
			x.Value().Equal(y.Value())
	default:
		return a == nil && b == nil
	}
}
