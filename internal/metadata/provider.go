// Package metadata supplies the field and operator catalogs the builder
// draws from when it creates or edits conditions.
//
// The catalog source (an API call in the admin console) is external; this
// package defines the Provider contract, an in-memory Catalog and loaders
// for catalog files. Catalogs are read once per editing session.
package metadata

import "github.com/TencentBlueKing/bk-audit-sub000/internal/filter"

// Provider is the read-only catalog consulted by the builder.
type Provider interface {
	Fields() []Field
	Operators() []Operator
}

// Field is a selectable field.
type Field struct {
	Table       string `json:"table" yaml:"table"`
	RawName     string `json:"raw_name" yaml:"raw_name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	FieldType   string `json:"field_type" yaml:"field_type"`
}

// Ref returns the opaque reference stored on a condition.
func (f Field) Ref() filter.FieldRef {
	return filter.FieldRef{
		Table:       f.Table,
		RawName:     f.RawName,
		DisplayName: f.DisplayName,
		FieldType:   f.FieldType,
	}
}

// Operator is a selectable operator.
type Operator struct {
	ID    filter.OperatorID `json:"id" yaml:"id"`
	Label string            `json:"label" yaml:"label"`
}

// Catalog is an in-memory Provider.
type Catalog struct {
	FieldList    []Field    `json:"fields" yaml:"fields"`
	OperatorList []Operator `json:"operators" yaml:"operators"`
}

func (c *Catalog) Fields() []Field {
	if c == nil {
		return nil
	}
	return c.FieldList
}

func (c *Catalog) Operators() []Operator {
	if c == nil {
		return nil
	}
	return c.OperatorList
}

// Snapshot copies p's catalogs so later changes to p are not observed.
// A nil provider yields an empty catalog.
func Snapshot(p Provider) *Catalog {
	if p == nil {
		return &Catalog{}
	}
	return &Catalog{
		FieldList:    append([]Field(nil), p.Fields()...),
		OperatorList: append([]Operator(nil), p.Operators()...),
	}
}

// FirstField returns the first catalog field, if any.
func FirstField(p Provider) (Field, bool) {
	fields := p.Fields()
	if len(fields) == 0 {
		return Field{}, false
	}
	return fields[0], true
}

// FirstOperator returns the first catalog operator, if any.
func FirstOperator(p Provider) (Operator, bool) {
	ops := p.Operators()
	if len(ops) == 0 {
		return Operator{}, false
	}
	return ops[0], true
}

// LookupField finds a field by table and raw name.
func LookupField(p Provider, table, rawName string) (Field, bool) {
	for _, f := range p.Fields() {
		if f.RawName == rawName && (table == "" || f.Table == table) {
			return f, true
		}
	}
	return Field{}, false
}

// DefaultOperators is the operator vocabulary of the audit query engine,
// in the order the console offers them.
func DefaultOperators() []Operator {
	return []Operator{
		{ID: filter.OpEqual, Label: "="},
		{ID: filter.OpNotEqual, Label: "!="},
		{ID: filter.OpInclude, Label: "in"},
		{ID: filter.OpExclude, Label: "not in"},
		{ID: filter.OpLike, Label: "contains"},
		{ID: filter.OpNotLike, Label: "not contains"},
		{ID: filter.OpLess, Label: "<"},
		{ID: filter.OpLessEq, Label: "<="},
		{ID: filter.OpGreater, Label: ">"},
		{ID: filter.OpGreaterEq, Label: ">="},
		{ID: filter.OpBetween, Label: "between"},
		{ID: filter.OpIsNull, Label: "is null"},
		{ID: filter.OpNotNull, Label: "is not null"},
	}
}
