package filter

import "strings"

// Arity is the value cardinality an operator requires.
type Arity int

const (
	// AritySingle operators carry one trimmed string, possibly empty.
	AritySingle Arity = iota
	// ArityNone operators carry no value at all.
	ArityNone
	// ArityMulti operators carry a list of non-empty trimmed strings.
	ArityMulti
)

// String returns "none", "single" or "multi".
func (a Arity) String() string {
	switch a {
	case ArityNone:
		return "none"
	case ArityMulti:
		return "multi"
	default:
		return "single"
	}
}

// Classify returns the arity of op. Unknown operators are single-valued.
func Classify(op OperatorID) Arity {
	switch op {
	case OpIsNull, OpNotNull:
		return ArityNone
	case OpInclude, OpExclude, OpBetween:
		return ArityMulti
	default:
		return AritySingle
	}
}

// Value is the shape a condition's text takes once its operator is applied.
// Exactly one of Single or Multi is meaningful, selected by Arity.
type Value struct {
	Arity  Arity
	Single string
	Multi  []string
}

// ValueOf interprets text under op's arity.
//
// Multi splits on commas, trims each part and drops empty parts; empty text
// gives an empty, non-nil list. Single trims. None discards the text.
func ValueOf(op OperatorID, text string) Value {
	switch Classify(op) {
	case ArityNone:
		return Value{Arity: ArityNone}
	case ArityMulti:
		return Value{Arity: ArityMulti, Multi: SplitMulti(text)}
	default:
		return Value{Arity: AritySingle, Single: strings.TrimSpace(text)}
	}
}

// SplitMulti splits comma-separated text into trimmed, non-empty parts.
func SplitMulti(text string) []string {
	parts := []string{}
	for _, p := range strings.Split(text, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// JoinMulti is the inverse of SplitMulti for parts that contain no commas.
func JoinMulti(parts []string) string {
	return strings.Join(parts, ",")
}

// Equal reports whether two values have the same arity and contents.
func (v Value) Equal(o Value) bool {
	if v.Arity != o.Arity {
		return false
	}
	switch v.Arity {
	case ArityNone:
		return true
	case ArityMulti:
		if len(v.Multi) != len(o.Multi) {
			return false
		}
		for i := range v.Multi {
			if v.Multi[i] != o.Multi[i] {
				return false
			}
		}
		return true
	default:
		return v.Single == o.Single
	}
}
