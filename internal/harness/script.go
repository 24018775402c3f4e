package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/metadata"
)

// Script is one editing session to replay.
type Script struct {
	// Name uniquely identifies this script and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this script exercises.
	Description string `yaml:"description"`

	// Catalog is an optional metadata catalog file.
	// LoadScript resolves it relative to the script file.
	Catalog string `yaml:"catalog,omitempty"`

	// Initial is the persisted payload the session starts from.
	Initial string `yaml:"initial,omitempty"`

	// ClearOnArityChange enables builder.WithClearOnArityChange.
	ClearOnArityChange bool `yaml:"clear_on_arity_change,omitempty"`

	// Steps are the edits, applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after all steps succeed.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is a single edit. Which fields apply depends on Action.
type Step struct {
	Action string `yaml:"action"`

	// Parent is the group alias for add_condition, add_group and delete_at.
	// Defaults to "root".
	Parent string `yaml:"parent,omitempty"`

	// Node is the target alias for delete and the set_* actions.
	Node string `yaml:"node,omitempty"`

	// As names the node created by add_condition or add_group.
	As string `yaml:"as,omitempty"`

	// Index is the child position for delete_at.
	Index *int `yaml:"index,omitempty"`

	// Field is a catalog raw name, optionally qualified as table.raw_name.
	Field string `yaml:"field,omitempty"`

	Operator  string  `yaml:"operator,omitempty"`
	Connector string  `yaml:"connector,omitempty"`
	Text      *string `yaml:"text,omitempty"`

	// Mode is the target of a switch: "textual" or "structured".
	Mode string `yaml:"mode,omitempty"`

	// ExpectOK, when set on a switch to structured, must equal the sync result.
	ExpectOK *bool `yaml:"expect_ok,omitempty"`
}

// Assertion checks the final session state.
type Assertion struct {
	Type string `yaml:"type"`

	Mode  string `yaml:"mode,omitempty"`  // mode
	Count int    `yaml:"count,omitempty"` // node_count
	Text  string `yaml:"text,omitempty"`  // submit_contains
	OK    *bool  `yaml:"ok,omitempty"`    // check
	SQL   string `yaml:"sql,omitempty"`   // sql_where
}

// Step action constants.
const (
	ActionAddCondition = "add_condition"
	ActionAddGroup     = "add_group"
	ActionDelete       = "delete"
	ActionDeleteAt     = "delete_at"
	ActionSetConnector = "set_connector"
	ActionSetField     = "set_field"
	ActionSetOperator  = "set_operator"
	ActionSetValue     = "set_value"
	ActionSwitch       = "switch"
	ActionSetText      = "set_text"
)

// Assertion type constants.
const (
	AssertMode           = "mode"
	AssertNodeCount      = "node_count"
	AssertSubmitContains = "submit_contains"
	AssertCheck          = "check"
	AssertRoundTrip      = "round_trip"
	AssertSQLWhere       = "sql_where"
)

// RootAlias always names the current root group.
const RootAlias = "root"

// LoadScript reads and parses a script YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}

	script, err := ParseScript(data)
	if err != nil {
		return nil, err
	}

	if script.Catalog != "" && !filepath.IsAbs(script.Catalog) {
		script.Catalog = filepath.Join(filepath.Dir(path), script.Catalog)
	}
	return script, nil
}

// ParseScript decodes and validates script YAML.
func ParseScript(data []byte) (*Script, error) {
	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var script Script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&script); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScript(&script); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &script, nil
}

// LoadCatalog loads the script's catalog file, or returns nil when the
// script names none.
func (s *Script) LoadCatalog() (metadata.Provider, error) {
	if s.Catalog == "" {
		return nil, nil
	}
	c, err := metadata.LoadFile(s.Catalog)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", s.Name, err)
	}
	return c, nil
}

// validateScript checks that required fields are present and valid.
func validateScript(s *Script) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateStep validates a single step based on its action.
func validateStep(index int, st *Step) error {
	need := func(ok bool, what string) error {
		if !ok {
			return fmt.Errorf("steps[%d]: %s is required for %s", index, what, st.Action)
		}
		return nil
	}

	switch st.Action {
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	case ActionAddCondition, ActionAddGroup:
		return nil
	case ActionDelete:
		return need(st.Node != "", "node")
	case ActionDeleteAt:
		return need(st.Index != nil, "index")
	case ActionSetConnector:
		if err := need(st.Node != "", "node"); err != nil {
			return err
		}
		return need(st.Connector != "", "connector")
	case ActionSetField:
		if err := need(st.Node != "", "node"); err != nil {
			return err
		}
		return need(st.Field != "", "field")
	case ActionSetOperator:
		if err := need(st.Node != "", "node"); err != nil {
			return err
		}
		return need(st.Operator != "", "operator")
	case ActionSetValue:
		if err := need(st.Node != "", "node"); err != nil {
			return err
		}
		return need(st.Text != nil, "text")
	case ActionSwitch:
		if st.Mode != "textual" && st.Mode != "structured" {
			return fmt.Errorf("steps[%d]: mode must be textual or structured, got %q", index, st.Mode)
		}
		return nil
	case ActionSetText:
		return need(st.Text != nil, "text")
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, st.Action)
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertMode:
		if a.Mode != "textual" && a.Mode != "structured" {
			return fmt.Errorf("assertions[%d]: mode must be textual or structured, got %q", index, a.Mode)
		}
	case AssertNodeCount:
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be at least 1 for node_count", index)
		}
	case AssertSubmitContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for submit_contains", index)
		}
	case AssertCheck:
		if a.OK == nil {
			return fmt.Errorf("assertions[%d]: ok is required for check", index)
		}
	case AssertRoundTrip:
	case AssertSQLWhere:
		if a.SQL == "" {
			return fmt.Errorf("assertions[%d]: sql is required for sql_where", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}
