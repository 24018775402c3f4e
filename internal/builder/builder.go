package builder

import (
	"strings"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/metadata"
)

// Builder owns one condition tree and the ID index over it.
type Builder struct {
	root    *filter.Group
	index   map[filter.NodeID]entry
	catalog *metadata.Catalog
	ids     IDGenerator

	clearOnArityChange bool
}

// entry records where a node lives. parent is nil for the root.
type entry struct {
	node   filter.Node
	parent *filter.Group
}

// Option configures a Builder.
type Option func(*Builder)

// WithIDGenerator replaces the default UUIDv7 ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(b *Builder) {
		if g != nil {
			b.ids = g
		}
	}
}

// WithClearOnArityChange makes SetOperator clear a condition's text when the
// new operator has a different arity than the old one. By default the text
// is kept and only reinterpreted at serialization time.
func WithClearOnArityChange() Option {
	return func(b *Builder) {
		b.clearOnArityChange = true
	}
}

// New creates a builder over root, or over an empty root group when root is
// nil. The provider's catalogs are copied once; later catalog changes are
// not observed.
func New(root *filter.Group, p metadata.Provider, opts ...Option) *Builder {
	b := &Builder{
		catalog: metadata.Snapshot(p),
		ids:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.Replace(root)
	return b
}

// Replace discards the current tree and adopts root (nil means an empty
// root group). Nodes without an ID, or whose ID is already taken, get a
// fresh one. root must not share nodes with any other tree.
func (b *Builder) Replace(root *filter.Group) {
	if root == nil {
		root = filter.DefaultRoot()
	}
	b.root = root
	b.index = make(map[filter.NodeID]entry)

	filter.Walk(root, func(n filter.Node, parent *filter.Group, _, _ int) bool {
		b.adopt(n, parent)
		return true
	})
}

func (b *Builder) adopt(n filter.Node, parent *filter.Group) {
	id := n.NodeID()
	if _, taken := b.index[id]; id == "" || taken {
		id = b.newID()
		switch x := n.(type) {
		case *filter.Group:
			x.ID = id
		case *filter.Condition:
			x.ID = id
		}
	}
	if c, ok := n.(*filter.Condition); ok {
		c.Field = validRef(c.Field)
		c.Operator = filter.OperatorID(validText(string(c.Operator)))
		c.Text = validText(c.Text)
	}
	b.index[id] = entry{node: n, parent: parent}
}

func (b *Builder) newID() filter.NodeID {
	for {
		id := filter.NodeID(b.ids.Generate())
		if _, taken := b.index[id]; id != "" && !taken {
			return id
		}
	}
}

// Root returns the live root group. Callers must not mutate it directly.
func (b *Builder) Root() *filter.Group {
	return b.root
}

// RootID returns the root group's ID.
func (b *Builder) RootID() filter.NodeID {
	return b.root.ID
}

// Catalog returns the catalog snapshot taken at construction.
func (b *Builder) Catalog() metadata.Provider {
	return b.catalog
}

// Lookup returns the node with the given ID.
func (b *Builder) Lookup(id filter.NodeID) (filter.Node, bool) {
	e, ok := b.index[id]
	return e.node, ok
}

// Parent returns the group containing id. The root has no parent.
func (b *Builder) Parent(id filter.NodeID) (*filter.Group, bool) {
	e, ok := b.index[id]
	if !ok || e.parent == nil {
		return nil, false
	}
	return e.parent, true
}

// Len returns the number of nodes in the tree, root included.
func (b *Builder) Len() int {
	return len(b.index)
}

// AddCondition appends a condition to the parent group, using the first
// catalog field and operator and an empty value text.
func (b *Builder) AddCondition(parent filter.NodeID) (filter.NodeID, error) {
	g, err := b.group(parent)
	if err != nil {
		return "", err
	}

	c := &filter.Condition{ID: b.newID()}
	if f, ok := metadata.FirstField(b.catalog); ok {
		c.Field = validRef(f.Ref())
	}
	if op, ok := metadata.FirstOperator(b.catalog); ok {
		c.Operator = filter.OperatorID(validText(string(op.ID)))
	}

	g.Append(c)
	b.index[c.ID] = entry{node: c, parent: g}
	return c.ID, nil
}

// AddGroup appends an empty AND group to the parent group.
func (b *Builder) AddGroup(parent filter.NodeID) (filter.NodeID, error) {
	g, err := b.group(parent)
	if err != nil {
		return "", err
	}

	child := filter.NewGroup(filter.And)
	child.ID = b.newID()

	g.Append(child)
	b.index[child.ID] = entry{node: child, parent: g}
	return child.ID, nil
}

// Delete removes the node and its subtree. Deleting the root is a no-op.
func (b *Builder) Delete(id filter.NodeID) error {
	if id == b.root.ID {
		return nil
	}
	e, ok := b.index[id]
	if !ok {
		return notFound(id)
	}

	e.parent.RemoveAt(e.parent.IndexOf(id))
	b.forget(e.node)
	return nil
}

// DeleteAt removes the child at index of parent. An empty parent addresses
// the root itself, which cannot be deleted, so the call is a no-op.
func (b *Builder) DeleteAt(parent filter.NodeID, index int) error {
	if parent == "" {
		return nil
	}
	g, err := b.group(parent)
	if err != nil {
		return err
	}

	removed := g.RemoveAt(index)
	if removed == nil {
		return &Error{Code: ErrCodeIndexOutOfRange, NodeID: parent, Message: "child index out of range"}
	}
	b.forget(removed)
	return nil
}

// forget drops n and its descendants from the index.
func (b *Builder) forget(n filter.Node) {
	g, ok := n.(*filter.Group)
	if !ok {
		delete(b.index, n.NodeID())
		return
	}
	filter.Walk(g, func(child filter.Node, _ *filter.Group, _, _ int) bool {
		delete(b.index, child.NodeID())
		return true
	})
}

// SetConnector overwrites a group's connector. Unknown values become AND.
func (b *Builder) SetConnector(id filter.NodeID, c filter.Connector) error {
	g, err := b.group(id)
	if err != nil {
		return err
	}
	g.Connector = filter.ParseConnector(string(c))
	return nil
}

// SetField overwrites a condition's field reference.
func (b *Builder) SetField(id filter.NodeID, ref filter.FieldRef) error {
	c, err := b.condition(id)
	if err != nil {
		return err
	}
	c.Field = validRef(ref)
	return nil
}

// SetOperator overwrites a condition's operator. The value text is left
// alone unless WithClearOnArityChange was given and the arity changes.
func (b *Builder) SetOperator(id filter.NodeID, op filter.OperatorID) error {
	c, err := b.condition(id)
	if err != nil {
		return err
	}
	if b.clearOnArityChange && filter.Classify(c.Operator) != filter.Classify(op) {
		c.Text = ""
	}
	c.Operator = filter.OperatorID(validText(string(op)))
	return nil
}

// SetValueText overwrites a condition's raw value text. Invalid UTF-8 is
// replaced with U+FFFD.
func (b *Builder) SetValueText(id filter.NodeID, text string) error {
	c, err := b.condition(id)
	if err != nil {
		return err
	}
	c.Text = validText(text)
	return nil
}

// validText replaces each run of invalid UTF-8 with U+FFFD, so stored
// strings survive a serialize and parse round trip unchanged.
func validText(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

func validRef(ref filter.FieldRef) filter.FieldRef {
	return filter.FieldRef{
		Table:       validText(ref.Table),
		RawName:     validText(ref.RawName),
		DisplayName: validText(ref.DisplayName),
		FieldType:   validText(ref.FieldType),
	}
}

func (b *Builder) group(id filter.NodeID) (*filter.Group, error) {
	e, ok := b.index[id]
	if !ok {
		return nil, notFound(id)
	}
	g, ok := e.node.(*filter.Group)
	if !ok {
		return nil, &Error{Code: ErrCodeNotGroup, NodeID: id, Message: "node is a condition"}
	}
	return g, nil
}

func (b *Builder) condition(id filter.NodeID) (*filter.Condition, error) {
	e, ok := b.index[id]
	if !ok {
		return nil, notFound(id)
	}
	c, ok := e.node.(*filter.Condition)
	if !ok {
		return nil, &Error{Code: ErrCodeNotCondition, NodeID: id, Message: "node is a group"}
	}
	return c, nil
}
