package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/builder"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/metadata"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/session"
)

// Option configures a run.
type Option func(*Harness)

// WithLogger routes session and harness logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithIDGenerator overrides the sequential node ID generator.
func WithIDGenerator(g builder.IDGenerator) Option {
	return func(h *Harness) {
		if g != nil {
			h.ids = g
		}
	}
}

// Harness is the script execution state for one run.
type Harness struct {
	session *session.Session
	catalog metadata.Provider
	aliases map[string]filter.NodeID
	ids     builder.IDGenerator
	logger  *slog.Logger
}

// Run replays script against a fresh session and returns the result.
//
// A nil catalog means no fields and the default operator vocabulary.
// Execution stops at the first failing step; assertions run only when
// every step succeeded. The returned error is reserved for a nil script.
func Run(script *Script, catalog metadata.Provider, opts ...Option) (*Result, error) {
	if script == nil {
		return nil, fmt.Errorf("script is required")
	}
	if catalog == nil {
		catalog = &metadata.Catalog{OperatorList: metadata.DefaultOperators()}
	}

	h := &Harness{
		catalog: catalog,
		aliases: make(map[string]filter.NodeID),
		ids:     builder.NewSequentialGenerator("n"),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	for _, opt := range opts {
		opt(h)
	}

	builderOpts := []builder.Option{builder.WithIDGenerator(h.ids)}
	if script.ClearOnArityChange {
		builderOpts = append(builderOpts, builder.WithClearOnArityChange())
	}

	sess, sync := session.New(script.Initial, catalog,
		session.WithBuilderOptions(builderOpts...),
		session.WithLogger(h.logger),
	)
	h.session = sess

	result := NewResult()
	if !sync.OK {
		h.logger.Warn("initial payload does not decode, starting from empty root",
			"script", script.Name, "error", sync.Err)
	}

	for i, step := range script.Steps {
		node, msg, err := h.execute(step)
		if err != nil {
			result.addTrace(i, step.Action, node, false, err.Error())
			result.AddError(fmt.Sprintf("step %d (%s): %v", i, step.Action, err))
			break
		}
		result.addTrace(i, step.Action, node, msg == "", msg)
	}

	if result.Pass {
		for i, a := range script.Assertions {
			if err := h.evaluate(a); err != nil {
				result.AddError(fmt.Sprintf("assertions[%d] (%s): %v", i, a.Type, err))
			}
		}
	}

	result.Mode = sess.Mode().String()
	result.Submitted = sess.Submit()
	h.logger.Debug("script finished", "script", script.Name, "pass", result.Pass, "steps", len(result.Trace))
	return result, nil
}

// execute applies one step. It returns the affected node ID, a message for
// steps that succeed with a caveat (a failed switch), and an error for
// steps that could not be applied.
func (h *Harness) execute(st Step) (string, string, error) {
	b := h.session.Builder()

	switch st.Action {
	case ActionAddCondition, ActionAddGroup:
		if err := h.requireStructured(); err != nil {
			return "", "", err
		}
		parent := h.resolve(st.Parent)
		add := b.AddCondition
		if st.Action == ActionAddGroup {
			add = b.AddGroup
		}
		id, err := add(parent)
		if err != nil {
			return string(parent), "", err
		}
		if st.As != "" {
			h.aliases[st.As] = id
		}
		return string(id), "", nil

	case ActionDelete:
		if err := h.requireStructured(); err != nil {
			return "", "", err
		}
		id := h.resolve(st.Node)
		return string(id), "", b.Delete(id)

	case ActionDeleteAt:
		if err := h.requireStructured(); err != nil {
			return "", "", err
		}
		parent := h.resolve(st.Parent)
		return string(parent), "", b.DeleteAt(parent, *st.Index)

	case ActionSetConnector:
		if err := h.requireStructured(); err != nil {
			return "", "", err
		}
		id := h.resolve(st.Node)
		return string(id), "", b.SetConnector(id, filter.ParseConnector(st.Connector))

	case ActionSetField:
		if err := h.requireStructured(); err != nil {
			return "", "", err
		}
		id := h.resolve(st.Node)
		ref, err := h.field(st.Field)
		if err != nil {
			return string(id), "", err
		}
		return string(id), "", b.SetField(id, ref)

	case ActionSetOperator:
		if err := h.requireStructured(); err != nil {
			return "", "", err
		}
		id := h.resolve(st.Node)
		return string(id), "", b.SetOperator(id, filter.OperatorID(st.Operator))

	case ActionSetValue:
		if err := h.requireStructured(); err != nil {
			return "", "", err
		}
		id := h.resolve(st.Node)
		return string(id), "", b.SetValueText(id, *st.Text)

	case ActionSetText:
		return "", "", h.session.SetText(*st.Text)

	case ActionSwitch:
		return h.switchMode(st)
	}
	return "", "", fmt.Errorf("unknown action %q", st.Action)
}

func (h *Harness) switchMode(st Step) (string, string, error) {
	if st.Mode == "textual" {
		h.session.SwitchToTextual()
		return "", "", nil
	}

	wasTextual := h.session.Mode() == session.Textual
	sync := h.session.SwitchToStructured()
	if st.ExpectOK != nil && *st.ExpectOK != sync.OK {
		return "", "", fmt.Errorf("switch to structured: ok = %t, want %t (%v)", sync.OK, *st.ExpectOK, sync.Err)
	}
	if !sync.OK {
		h.logger.Info("textual payload rejected, previous tree kept", "error", sync.Err)
		return "", sync.Err.Error(), nil
	}
	if wasTextual {
		// The adopted tree has fresh IDs.
		clear(h.aliases)
	}
	return string(h.session.Builder().RootID()), "", nil
}

func (h *Harness) requireStructured() error {
	if h.session.Mode() != session.Structured {
		return fmt.Errorf("tree edits need structured mode: %w", session.ErrWrongMode)
	}
	return nil
}

// resolve maps an alias to a node ID. Empty and "root" name the root;
// anything that is not an alias is taken as a literal ID.
func (h *Harness) resolve(alias string) filter.NodeID {
	if alias == "" || alias == RootAlias {
		return h.session.Builder().RootID()
	}
	if id, ok := h.aliases[alias]; ok {
		return id
	}
	return filter.NodeID(alias)
}

// field looks up "raw_name" or "table.raw_name" in the catalog.
func (h *Harness) field(name string) (filter.FieldRef, error) {
	table, raw := "", name
	if i := strings.LastIndex(name, "."); i >= 0 {
		table, raw = name[:i], name[i+1:]
	}
	f, ok := metadata.LookupField(h.catalog, table, raw)
	if !ok {
		return filter.FieldRef{}, errors.New("unknown field " + name)
	}
	return f.Ref(), nil
}
