package store

import (
	"context"
	"errors"
	"testing"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/filtercodec"
)

func TestSave_AssignsIncreasingSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, "a", `{"connector":"and","conditions":[]}`, SourceStructured)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	second, err := s.Save(ctx, "b", `{"connector":"or","conditions":[]}`, SourceStructured)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("seq = %d, %d; want 1, 2", first.Seq, second.Seq)
	}
}

func TestSave_OverwriteMovesToEnd(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "a"} {
		if _, err := s.Save(ctx, name, `{"connector":"and","conditions":[]}`, ""); err != nil {
			t.Fatalf("Save(%q) failed: %v", name, err)
		}
	}

	filters, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(filters) != 2 {
		t.Fatalf("List() returned %d filters, want 2", len(filters))
	}
	if filters[0].Name != "b" || filters[1].Name != "a" {
		t.Errorf("order = %q, %q; want b, a", filters[0].Name, filters[1].Name)
	}
	if filters[1].Seq != 3 {
		t.Errorf("overwritten seq = %d, want 3", filters[1].Seq)
	}
	if filters[1].Source != SourceStructured {
		t.Errorf("empty source stored as %q, want %q", filters[1].Source, SourceStructured)
	}
}

func TestSave_RequiresName(t *testing.T) {
	s := createTestStore(t)
	if _, err := s.Save(context.Background(), "", "{}", SourceTextual); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestSave_InvalidPayloadStoredVerbatim(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	payload := `{"connector": "and", "conditions": [`
	saved, err := s.Save(ctx, "broken", payload, SourceTextual)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if saved.Fingerprint != "" {
		t.Errorf("fingerprint = %q, want empty for undecodable payload", saved.Fingerprint)
	}

	loaded, err := s.Load(ctx, "broken")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Payload != payload {
		t.Errorf("payload = %q, want %q", loaded.Payload, payload)
	}
	if loaded.Source != SourceTextual {
		t.Errorf("source = %q, want %q", loaded.Source, SourceTextual)
	}
}

func TestLoad_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Load(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestList_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	filters, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if filters == nil {
		t.Error("List() returned nil, want empty slice")
	}
}

func TestDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "a", "{}", SourceTextual); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := s.Load(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after Delete() error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestFindByFingerprint_MatchesEquivalentSpellings(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	root := tree(filter.And, cond("username", filter.OpEqual, "alice"))
	structured := filtercodec.Serialize(root)
	textual := `{"conditions":[{"condition":{"operator":"eq","filter":"alice",` +
		`"field":{"field_type":"string","display_name":"Username","raw_name":"username","table":"audit_event"}}}],` +
		`"connector":"AND"}`

	a, err := s.Save(ctx, "structured", structured, SourceStructured)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	b, err := s.Save(ctx, "textual", textual, SourceTextual)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := s.Save(ctx, "other", `{"connector":"or","conditions":[]}`, SourceTextual); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if a.Fingerprint == "" || a.Fingerprint != b.Fingerprint {
		t.Fatalf("fingerprints differ: %q vs %q", a.Fingerprint, b.Fingerprint)
	}

	matches, err := s.FindByFingerprint(ctx, a.Fingerprint)
	if err != nil {
		t.Fatalf("FindByFingerprint() failed: %v", err)
	}
	if len(matches) != 2 || matches[0].Name != "structured" || matches[1].Name != "textual" {
		t.Errorf("matches = %+v, want structured then textual", matches)
	}
}

func TestFindByFingerprint_EmptyNeverMatches(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "broken", "{", SourceTextual); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	matches, err := s.FindByFingerprint(ctx, "")
	if err != nil {
		t.Fatalf("FindByFingerprint() failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("empty fingerprint matched %d filters", len(matches))
	}
}
