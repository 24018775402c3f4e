package filter

import "strings"

// NodeID identifies a node within one editing session.
// IDs are assigned by the builder; the codec never reads or writes them.
type NodeID string

// Connector is the boolean combinator of a Group.
type Connector string

const (
	And Connector = "and"
	Or  Connector = "or"
)

// ParseConnector maps s onto a Connector. Matching is case-insensitive and
// anything other than "or" yields And.
func ParseConnector(s string) Connector {
	if strings.EqualFold(strings.TrimSpace(s), string(Or)) {
		return Or
	}
	return And
}

// OperatorID identifies a comparison operator from the metadata catalog.
type OperatorID string

// Operators understood by the arity policy and the SQL backend.
// The catalog may offer others; they are treated as single-valued.
const (
	OpEqual     OperatorID = "eq"
	OpNotEqual  OperatorID = "neq"
	OpLess      OperatorID = "lt"
	OpLessEq    OperatorID = "lte"
	OpGreater   OperatorID = "gt"
	OpGreaterEq OperatorID = "gte"
	OpLike      OperatorID = "like"
	OpNotLike   OperatorID = "not-like"
	OpInclude   OperatorID = "include"
	OpExclude   OperatorID = "exclude"
	OpBetween   OperatorID = "between"
	OpIsNull    OperatorID = "is-null"
	OpNotNull   OperatorID = "not-null"
)

// FieldRef is an opaque reference to a catalog field.
// The tree never checks that the referenced field still exists.
type FieldRef struct {
	Table       string
	RawName     string
	DisplayName string
	FieldType   string
}

// Node is a sealed interface implemented by *Group and *Condition.
type Node interface {
	NodeID() NodeID
	node() // Marker method - seals interface to this package
}

// Group combines its children under one connector.
type Group struct {
	ID        NodeID
	Connector Connector
	Children  []Node
}

func (g *Group) NodeID() NodeID { return g.ID }
func (*Group) node()            {}

// Condition is a leaf predicate.
type Condition struct {
	ID       NodeID
	Field    FieldRef
	Operator OperatorID
	Text     string // raw value text, independent of Operator
}

func (c *Condition) NodeID() NodeID { return c.ID }
func (*Condition) node()            {}

// Value reinterprets the condition's text according to its operator.
func (c *Condition) Value() Value {
	return ValueOf(c.Operator, c.Text)
}

// NewGroup returns an empty group. A zero connector becomes And.
func NewGroup(connector Connector) *Group {
	if connector != Or {
		connector = And
	}
	return &Group{Connector: connector}
}

// DefaultRoot returns the tree used when there is nothing to parse.
func DefaultRoot() *Group {
	return NewGroup(And)
}

// Append adds n as the last child of g.
func (g *Group) Append(n Node) {
	g.Children = append(g.Children, n)
}

// RemoveAt removes and returns the child at index i.
// It returns nil when i is out of range.
func (g *Group) RemoveAt(i int) Node {
	if i < 0 || i >= len(g.Children) {
		return nil
	}
	n := g.Children[i]
	g.Children = append(g.Children[:i:i], g.Children[i+1:]...)
	return n
}

// IndexOf returns the position of the child with the given id, or -1.
func (g *Group) IndexOf(id NodeID) int {
	for i, child := range g.Children {
		if child.NodeID() == id {
			return i
		}
	}
	return -1
}
