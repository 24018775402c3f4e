package filtercodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
)

// ErrEmptyInput is wrapped by the ParseError returned for blank input.
var ErrEmptyInput = errors.New("empty input")

// ParseError describes why a text could not be decoded into a tree.
type ParseError struct {
	// Path is a JSON path to the offending value, e.g. "$.conditions[1].condition".
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes text, falling back to an empty root group on any failure.
func Parse(text string) *filter.Group {
	root, _ := ParseResult(text)
	return root
}

// ParseResult is Parse that also reports why the fallback was used.
// The returned tree is never nil.
func ParseResult(text string) (*filter.Group, error) {
	root, err := Decode([]byte(text))
	if err != nil {
		return filter.DefaultRoot(), err
	}
	return root, nil
}

// Decode strictly decodes data into a tree.
//
// Blank input, invalid JSON, a root that is not a group object, or an entry
// of the wrong JSON type is reported as a *ParseError. Unknown connectors
// and unknown keys are tolerated. The input is read in a single pass, so
// cost is linear in its size whatever the nesting depth.
func Decode(data []byte) (*filter.Group, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Path: "$", Message: "no filter text", Err: ErrEmptyInput}
	}
	if !json.Valid(data) {
		var v any
		err := json.Unmarshal(data, &v)
		return nil, &ParseError{Path: "$", Message: "invalid JSON", Err: err}
	}

	d := &decoder{dec: json.NewDecoder(bytes.NewReader(data)), path: []string{"$"}}
	e, err := d.object()
	if err != nil {
		return nil, err
	}
	if e.leaf != nil {
		return nil, &ParseError{Path: "$", Message: "root must be a group, not a condition"}
	}
	return e.group, nil
}

// decoder walks the token stream once. path holds the segments of the
// current location and is only joined when an error is reported.
type decoder struct {
	dec  *json.Decoder
	path []string
}

// entry is one decoded object: a group, or the raw body of a condition.
type entry struct {
	group *filter.Group
	leaf  json.RawMessage
}

func (d *decoder) push(seg string) { d.path = append(d.path, seg) }
func (d *decoder) pop()            { d.path = d.path[:len(d.path)-1] }

// at renders the current path followed by suffix.
func (d *decoder) at(suffix string) string {
	return strings.Join(d.path, "") + suffix
}

func (d *decoder) fail(suffix, message string, err error) *ParseError {
	return &ParseError{Path: d.at(suffix), Message: message, Err: err}
}

func (d *decoder) token() (json.Token, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, d.fail("", "invalid JSON", err)
	}
	return tok, nil
}

func (d *decoder) skip() (json.RawMessage, error) {
	var raw json.RawMessage
	if err := d.dec.Decode(&raw); err != nil {
		return nil, d.fail("", "invalid JSON", err)
	}
	return raw, nil
}

// object reads one JSON object. An object with a condition key is a leaf
// and any conditions it also carries are ignored.
func (d *decoder) object() (entry, error) {
	tok, err := d.token()
	if err != nil {
		return entry{}, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return entry{}, d.fail("", "expected object", nil)
	}

	var (
		connector json.RawMessage
		leaf      json.RawMessage
		children  []filter.Node
	)
	for d.dec.More() {
		tok, err := d.token()
		if err != nil {
			return entry{}, err
		}
		key, _ := tok.(string)

		switch {
		case key == "condition":
			if leaf, err = d.skip(); err != nil {
				return entry{}, err
			}
		case key == "conditions" && leaf == nil:
			if children, err = d.conditions(); err != nil {
				return entry{}, err
			}
		case key == "connector":
			if connector, err = d.skip(); err != nil {
				return entry{}, err
			}
		default:
			if _, err := d.skip(); err != nil {
				return entry{}, err
			}
		}
	}
	if _, err := d.token(); err != nil {
		return entry{}, err
	}

	if leaf != nil {
		return entry{leaf: leaf}, nil
	}

	g := filter.NewGroup(filter.And)
	if connector != nil {
		var s string
		if json.Unmarshal(connector, &s) == nil {
			g.Connector = filter.ParseConnector(s)
		}
	}
	for _, child := range children {
		g.Append(child)
	}
	return entry{group: g}, nil
}

// conditions reads a group's conditions array. null means no children.
func (d *decoder) conditions() ([]filter.Node, error) {
	d.push(".conditions")
	defer d.pop()

	tok, err := d.token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, d.fail("", "expected array", nil)
	}

	var nodes []filter.Node
	for i := 0; d.dec.More(); i++ {
		d.push("[" + strconv.Itoa(i) + "]")
		n, err := d.node()
		d.pop()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if _, err := d.token(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (d *decoder) node() (filter.Node, error) {
	e, err := d.object()
	if err != nil {
		return nil, err
	}
	if e.leaf == nil {
		return e.group, nil
	}

	d.push(".condition")
	defer d.pop()
	c, err := d.condition(e.leaf)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (d *decoder) condition(raw json.RawMessage) (*filter.Condition, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, d.fail("", "expected object", nil)
	}

	c := &filter.Condition{}

	if rawField, ok := obj["field"]; ok && !isNull(rawField) {
		ref, err := decodeField(rawField)
		if err != nil {
			return nil, d.fail(".field", "expected object", err)
		}
		c.Field = ref
	}

	rawOp, ok := obj["operator"]
	if !ok {
		return nil, d.fail(".operator", "missing operator", nil)
	}
	var op string
	if err := json.Unmarshal(rawOp, &op); err != nil {
		return nil, d.fail(".operator", "expected string", nil)
	}
	c.Operator = filter.OperatorID(op)

	// filters wins over filter when both are present
	if rawFilters, ok := obj["filters"]; ok && !isNull(rawFilters) {
		var items []json.RawMessage
		if err := json.Unmarshal(rawFilters, &items); err != nil {
			return nil, d.fail(".filters", "expected array", nil)
		}
		parts := make([]string, 0, len(items))
		for i, item := range items {
			s, msg, err := decodeScalar(item)
			if msg != "" {
				return nil, d.fail(fmt.Sprintf(".filters[%d]", i), msg, err)
			}
			parts = append(parts, s)
		}
		c.Text = filter.JoinMulti(parts)
		return c, nil
	}

	if rawFilter, ok := obj["filter"]; ok && !isNull(rawFilter) {
		s, msg, err := decodeScalar(rawFilter)
		if msg != "" {
			return nil, d.fail(".filter", msg, err)
		}
		c.Text = s
	}

	return c, nil
}

// decodeField accepts the object form or a bare raw name.
func decodeField(raw json.RawMessage) (filter.FieldRef, error) {
	var name string
	if json.Unmarshal(raw, &name) == nil {
		return filter.FieldRef{RawName: name}, nil
	}

	var w wireField
	if err := json.Unmarshal(raw, &w); err != nil {
		return filter.FieldRef{}, err
	}
	return filter.FieldRef{
		Table:       w.Table,
		RawName:     w.RawName,
		DisplayName: w.DisplayName,
		FieldType:   w.FieldType,
	}, nil
}

// decodeScalar renders a JSON string, number or boolean as value text.
// A non-empty message describes why raw is not a scalar.
func decodeScalar(raw json.RawMessage) (string, string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "", "expected scalar", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", "invalid string", err
		}
		return s, "", nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", "invalid boolean", err
		}
		return strconv.FormatBool(b), "", nil
	case '{', '[', 'n':
		return "", "expected scalar", nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", "invalid number", err
		}
		return n.String(), "", nil
	}
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
