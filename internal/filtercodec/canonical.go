package filtercodec

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
)

// DomainFilter prefixes fingerprint input. The version suffix allows a
// future change of the canonical form without colliding with stored values.
const DomainFilter = "bkaudit/filter/v1"

// Canonical returns an RFC 8785 style canonical encoding of root's wire form:
// compact, keys sorted by UTF-16 code units, strings NFC normalized and
// nothing HTML-escaped. Two trees with equal wire forms always produce the
// same bytes, however their text was formatted.
func Canonical(root *filter.Group) ([]byte, error) {
	if root == nil {
		root = filter.DefaultRoot()
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, groupToMap(root)); err != nil {
		return nil, fmt.Errorf("canonical filter: %w", err)
	}
	return buf.Bytes(), nil
}

// Fingerprint returns the hex SHA-256 of the canonical form of root.
func Fingerprint(root *filter.Group) (string, error) {
	data, err := Canonical(root)
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainFilter, data), nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func groupToMap(g *filter.Group) map[string]any {
	w := toWireGroup(g)
	return map[string]any{
		"connector":  w.Connector,
		"conditions": entriesToList(g),
	}
}

func entriesToList(g *filter.Group) []any {
	list := make([]any, 0, len(g.Children))
	for _, child := range g.Children {
		switch n := child.(type) {
		case *filter.Group:
			list = append(list, groupToMap(n))
		case *filter.Condition:
			list = append(list, map[string]any{"condition": conditionToMap(n)})
		}
	}
	return list
}

func conditionToMap(c *filter.Condition) map[string]any {
	w := toWireCondition(c)
	m := map[string]any{
		"field": map[string]any{
			"table":        w.Field.Table,
			"raw_name":     w.Field.RawName,
			"display_name": w.Field.DisplayName,
			"field_type":   w.Field.FieldType,
		},
		"operator": w.Operator,
	}
	if w.Filter != nil {
		m["filter"] = *w.Filter
	}
	if w.Filters != nil {
		items := make([]any, len(*w.Filters))
		for i, s := range *w.Filters {
			items[i] = s
		}
		m["filters"] = items
	}
	return m
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case string:
		writeCanonicalString(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareUTF16)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString escapes only quote, backslash and control characters.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	const hexDigits = "0123456789abcdef"

	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[r>>4])
				buf.WriteByte(hexDigits[r&0xF])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

// compareUTF16 orders strings by UTF-16 code units as RFC 8785 requires.
// Go's native string order is by UTF-8 bytes, which differs above U+FFFF.
func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
