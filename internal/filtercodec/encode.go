package filtercodec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
)

type wireGroup struct {
	Connector  string `json:"connector"`
	Conditions []any  `json:"conditions"`
}

type wireEntry struct {
	Condition wireCondition `json:"condition"`
}

type wireCondition struct {
	Field    wireField `json:"field"`
	Operator string    `json:"operator"`
	Filter   *string   `json:"filter,omitempty"`
	Filters  *[]string `json:"filters,omitempty"` // pointer so an empty list is still written
}

type wireField struct {
	Table       string `json:"table"`
	RawName     string `json:"raw_name"`
	DisplayName string `json:"display_name"`
	FieldType   string `json:"field_type"`
}

// Marshal encodes root as indented JSON. A nil root encodes the default tree.
func Marshal(root *filter.Group) ([]byte, error) {
	if root == nil {
		root = filter.DefaultRoot()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toWireGroup(root)); err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}

	// json.Encoder adds trailing newline, remove it
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Serialize returns the JSON text for root.
//
// Panics if encoding fails, which cannot happen for the wire types used here.
func Serialize(root *filter.Group) string {
	data, err := Marshal(root)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func toWireGroup(g *filter.Group) wireGroup {
	connector := g.Connector
	if connector != filter.Or {
		connector = filter.And
	}

	w := wireGroup{
		Connector:  string(connector),
		Conditions: make([]any, 0, len(g.Children)),
	}
	for _, child := range g.Children {
		switch n := child.(type) {
		case *filter.Group:
			w.Conditions = append(w.Conditions, toWireGroup(n))
		case *filter.Condition:
			w.Conditions = append(w.Conditions, wireEntry{Condition: toWireCondition(n)})
		}
	}
	return w
}

func toWireCondition(c *filter.Condition) wireCondition {
	w := wireCondition{
		Field: wireField{
			Table:       c.Field.Table,
			RawName:     c.Field.RawName,
			DisplayName: c.Field.DisplayName,
			FieldType:   c.Field.FieldType,
		},
		Operator: string(c.Operator),
	}

	v := c.Value()
	switch v.Arity {
	case filter.ArityMulti:
		filters := v.Multi
		w.Filters = &filters
	case filter.AritySingle:
		single := v.Single
		w.Filter = &single
	}
	return w
}
