package session

import (
	"errors"
	"io"
	"log/slog"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/builder"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/filtercodec"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/metadata"
)

// Mode is the authoritative view of a session.
type Mode int

const (
	Structured Mode = iota
	Textual
)

// String returns "structured" or "textual".
func (m Mode) String() string {
	if m == Textual {
		return "textual"
	}
	return "structured"
}

// ErrWrongMode is returned when an edit targets the non-authoritative view.
var ErrWrongMode = errors.New("operation not allowed in current mode")

// SyncResult reports whether text was successfully decoded into the tree.
type SyncResult struct {
	// OK is true when the tree reflects the text.
	OK bool
	// Err describes the failure when OK is false; usually a
	// *filtercodec.ParseError.
	Err error
}

// Session is one editing session. It is not safe for concurrent use.
type Session struct {
	mode    Mode
	builder *builder.Builder
	text    string
	log     *slog.Logger
}

// Option configures a Session.
type Option func(*config)

type config struct {
	builderOpts []builder.Option
	log         *slog.Logger
}

// WithBuilderOptions passes options through to the session's builder.
func WithBuilderOptions(opts ...builder.Option) Option {
	return func(c *config) {
		c.builderOpts = append(c.builderOpts, opts...)
	}
}

// WithLogger sets the logger for mode transitions. Defaults to discarding.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// New starts a session in Structured mode from the persisted text initial.
//
// Blank or invalid initial text starts from an empty root group; the
// returned SyncResult says which happened. Blank text is not a failure.
func New(initial string, p metadata.Provider, opts ...Option) (*Session, SyncResult) {
	cfg := config{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	root, err := filtercodec.ParseResult(initial)
	s := &Session{
		mode:    Structured,
		builder: builder.New(root, p, cfg.builderOpts...),
		log:     cfg.log,
	}

	if err != nil && !errors.Is(err, filtercodec.ErrEmptyInput) {
		s.log.Debug("initial filter text not decodable, starting empty", "error", err)
		return s, SyncResult{OK: false, Err: err}
	}
	return s, SyncResult{OK: true}
}

// Mode returns the authoritative view.
func (s *Session) Mode() Mode {
	return s.mode
}

// Builder returns the structured editor. Its tree is authoritative only in
// Structured mode; edits made in Textual mode are lost by the next
// successful SwitchToStructured.
func (s *Session) Builder() *builder.Builder {
	return s.builder
}

// Text returns the textual buffer. It is refreshed on every switch to
// Textual mode and is stale while in Structured mode.
func (s *Session) Text() string {
	return s.text
}

// SetText replaces the textual buffer. Only allowed in Textual mode.
func (s *Session) SetText(text string) error {
	if s.mode != Textual {
		return ErrWrongMode
	}
	s.text = text
	return nil
}

// SwitchToTextual serializes the tree into the buffer and makes the buffer
// authoritative. Calling it in Textual mode is a no-op that keeps the buffer.
func (s *Session) SwitchToTextual() {
	if s.mode == Textual {
		return
	}
	s.text = filtercodec.Serialize(s.builder.Root())
	s.mode = Textual
	s.log.Debug("switched to textual mode", "bytes", len(s.text))
}

// SwitchToStructured decodes the buffer and makes the tree authoritative.
//
// On success the decoded tree replaces the previous one. On failure the
// previous tree is kept untouched, the mode still changes, and the result
// carries the decode error. Calling it in Structured mode is a no-op.
func (s *Session) SwitchToStructured() SyncResult {
	if s.mode == Structured {
		return SyncResult{OK: true}
	}
	s.mode = Structured

	root, err := filtercodec.Decode([]byte(s.text))
	if err != nil {
		s.log.Debug("textual filter not decodable, keeping previous tree", "error", err)
		return SyncResult{OK: false, Err: err}
	}

	s.builder.Replace(root)
	s.log.Debug("switched to structured mode", "nodes", s.builder.Len())
	return SyncResult{OK: true}
}

// Submit returns the payload to persist or execute.
//
// In Textual mode the buffer is returned verbatim, without any check. In
// Structured mode the tree is serialized.
func (s *Session) Submit() string {
	if s.mode == Textual {
		return s.text
	}
	return filtercodec.Serialize(s.builder.Root())
}

// Check decodes what Submit would return. Submission never requires it; it
// lets a caller warn before sending unparsable textual input.
func (s *Session) Check() error {
	_, err := filtercodec.Decode([]byte(s.Submit()))
	return err
}
