package session

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/builder"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/filtercodec"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/testutil"
)

const persisted = `{"connector":"or","conditions":[
	{"condition":{"field":{"table":"audit_event","raw_name":"username","display_name":"Username","field_type":"string"},"operator":"include","filters":["alice","bob"]}},
	{"connector":"and","conditions":[]}
]}`

func newSession(t *testing.T, initial string) (*Session, SyncResult) {
	t.Helper()
	return New(initial, testutil.Catalog(),
		WithBuilderOptions(builder.WithIDGenerator(testutil.NewFixedIDGenerator())))
}

func TestNew_FromPersistedText(t *testing.T) {
	s, res := newSession(t, persisted)
	assert.True(t, res.OK)
	assert.NoError(t, res.Err)
	assert.Equal(t, Structured, s.Mode())

	root := s.Builder().Root()
	assert.Equal(t, filter.Or, root.Connector)
	require.Len(t, root.Children, 2)
}

func TestNew_EmptyTextIsNotAFailure(t *testing.T) {
	s, res := newSession(t, "")
	assert.True(t, res.OK)
	assert.True(t, filter.Equal(filter.DefaultRoot(), s.Builder().Root()))
}

func TestNew_InvalidTextFallsBackAndReports(t *testing.T) {
	s, res := newSession(t, "{not valid")
	assert.False(t, res.OK)
	var pe *filtercodec.ParseError
	assert.True(t, errors.As(res.Err, &pe))
	assert.True(t, filter.Equal(filter.DefaultRoot(), s.Builder().Root()))
}

func TestSwitchToTextual_SerializesTree(t *testing.T) {
	s, _ := newSession(t, "")
	b := s.Builder()
	id, err := b.AddCondition(b.RootID())
	require.NoError(t, err)
	require.NoError(t, b.SetOperator(id, filter.OpInclude))
	require.NoError(t, b.SetValueText(id, "a, b ,c"))

	s.SwitchToTextual()
	assert.Equal(t, Textual, s.Mode())
	assert.Equal(t, filtercodec.Serialize(b.Root()), s.Text())
	assert.Contains(t, s.Text(), `"filters": [`)
}

func TestSwitchToTextual_TwiceKeepsBuffer(t *testing.T) {
	s, _ := newSession(t, "")
	s.SwitchToTextual()
	require.NoError(t, s.SetText("edited"))
	s.SwitchToTextual()
	assert.Equal(t, "edited", s.Text())
}

func TestRoundTripThroughModes(t *testing.T) {
	s, _ := newSession(t, persisted)
	before := filtercodec.Parse(persisted)

	s.SwitchToTextual()
	res := s.SwitchToStructured()

	assert.True(t, res.OK)
	assert.Equal(t, Structured, s.Mode())
	assert.True(t, filter.Equal(before, s.Builder().Root()))
}

func TestSwitchToStructured_ReplacesTree(t *testing.T) {
	s, _ := newSession(t, persisted)
	s.SwitchToTextual()
	require.NoError(t, s.SetText(`{"connector":"and","conditions":[{"condition":{"field":{"raw_name":"ip"},"operator":"not-null"}}]}`))

	res := s.SwitchToStructured()
	require.True(t, res.OK)

	root := s.Builder().Root()
	assert.Equal(t, filter.And, root.Connector)
	require.Len(t, root.Children, 1)
	c := root.Children[0].(*filter.Condition)
	assert.Equal(t, "ip", c.Field.RawName)

	// The new tree is addressable by the builder.
	_, ok := s.Builder().Lookup(c.ID)
	assert.True(t, ok)
}

func TestSwitchToStructured_DiscardsUnserializedTreeEdits(t *testing.T) {
	s, _ := newSession(t, "")
	s.SwitchToTextual()

	// Editing the tree while textual is authoritative has no lasting effect.
	b := s.Builder()
	_, err := b.AddCondition(b.RootID())
	require.NoError(t, err)

	res := s.SwitchToStructured()
	require.True(t, res.OK)
	assert.Empty(t, s.Builder().Root().Children)
}

func TestSwitchToStructured_FailureKeepsPreviousTree(t *testing.T) {
	s, _ := newSession(t, persisted)
	before := filtercodec.Serialize(s.Builder().Root())
	rootBefore := s.Builder().Root()

	s.SwitchToTextual()
	require.NoError(t, s.SetText("{not valid"))
	res := s.SwitchToStructured()

	assert.False(t, res.OK)
	require.Error(t, res.Err)
	assert.Equal(t, Structured, s.Mode(), "mode switches even on failure")
	assert.Same(t, rootBefore, s.Builder().Root())
	assert.Equal(t, before, filtercodec.Serialize(s.Builder().Root()))
	assert.Equal(t, "{not valid", s.Text(), "buffer is left as typed")
}

func TestSwitchToStructured_InStructuredIsNoOp(t *testing.T) {
	s, _ := newSession(t, persisted)
	root := s.Builder().Root()
	res := s.SwitchToStructured()
	assert.True(t, res.OK)
	assert.Same(t, root, s.Builder().Root())
}

func TestSetText_RequiresTextualMode(t *testing.T) {
	s, _ := newSession(t, "")
	assert.ErrorIs(t, s.SetText("x"), ErrWrongMode)
}

func TestSubmit_Structured(t *testing.T) {
	s, _ := newSession(t, persisted)
	got := s.Submit()
	assert.Equal(t, filtercodec.Serialize(s.Builder().Root()), got)
	assert.NoError(t, s.Check())
}

func TestSubmit_TextualIsVerbatim(t *testing.T) {
	s, _ := newSession(t, persisted)
	s.SwitchToTextual()
	require.NoError(t, s.SetText("  {not valid  "))

	assert.Equal(t, "  {not valid  ", s.Submit())
	assert.Error(t, s.Check())
	assert.Equal(t, Textual, s.Mode(), "submission does not switch modes")
}

func TestSubmit_TextualAfterFormattingEdit(t *testing.T) {
	s, _ := newSession(t, "")
	s.SwitchToTextual()
	raw := `{"connector":"and","conditions":[]}`
	require.NoError(t, s.SetText(raw))
	assert.Equal(t, raw, s.Submit())
	assert.NoError(t, s.Check())
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, _ := New("", testutil.Catalog(), WithLogger(log))
	s.SwitchToTextual()
	require.NoError(t, s.SetText("{"))
	s.SwitchToStructured()

	assert.Contains(t, buf.String(), "switched to textual mode")
	assert.Contains(t, buf.String(), "keeping previous tree")
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "structured", Structured.String())
	assert.Equal(t, "textual", Textual.String())
}
