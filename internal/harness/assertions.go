package harness

import (
	"fmt"
	"strings"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/filtercodec"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/querysql"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// evaluate checks one assertion against the session.
func (h *Harness) evaluate(a Assertion) error {
	switch a.Type {
	case AssertMode:
		return assertEqual(a.Type, a.Mode, h.session.Mode().String())

	case AssertNodeCount:
		groups, conditions := filter.Count(h.session.Builder().Root())
		return assertEqual(a.Type, fmt.Sprint(a.Count), fmt.Sprint(groups+conditions))

	case AssertSubmitContains:
		submitted := h.session.Submit()
		if !strings.Contains(submitted, a.Text) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("payload containing %q", a.Text), Actual: submitted}
		}
		return nil

	case AssertCheck:
		err := h.session.Check()
		if (err == nil) != *a.OK {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("ok = %t", *a.OK), Actual: fmt.Sprintf("%v", err)}
		}
		return nil

	case AssertRoundTrip:
		root := h.session.Builder().Root()
		back := filtercodec.Parse(filtercodec.Serialize(root))
		if !filter.Equal(root, back) {
			return &AssertionError{Type: a.Type, Expected: "tree equal after serialize and parse", Actual: filtercodec.Serialize(back)}
		}
		return nil

	case AssertSQLWhere:
		root, err := filtercodec.Decode([]byte(h.session.Submit()))
		if err != nil {
			return fmt.Errorf("submitted payload does not decode: %w", err)
		}
		where, _, err := querysql.NewSQLCompiler().CompileWhere(root)
		if err != nil {
			return err
		}
		return assertEqual(a.Type, a.SQL, where)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertEqual(typ, want, got string) error {
	if want != got {
		return &AssertionError{Type: typ, Expected: want, Actual: got}
	}
	return nil
}
