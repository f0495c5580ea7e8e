package store

import (
	"path/filepath"
	"testing"
	"time"

	"chatwarden/internal/filter"
	"chatwarden/internal/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "warden.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndCountViolations(t *testing.T) {
	s := newTestStore(t)

	now := time.Now()
	for _, label := range []string{"pipe to shell", "recursive delete", "pipe to shell"} {
		if err := s.RecordViolation(label, now); err != nil {
			t.Fatalf("record violation: %v", err)
		}
	}

	n, err := s.ViolationCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 violations, got %d", n)
	}
}

func TestRecentViolationsNewestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i, label := range []string{"first", "second", "third"} {
		if err := s.RecordViolation(label, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := s.RecentViolations(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Label != "third" || got[1].Label != "second" {
		t.Errorf("expected newest first, got %v", got)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.RecordViolation("sql injection", time.Now()); err != nil {
		t.Fatalf("record: %v", err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	n, err := s2.ViolationCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected the violation to survive reopen, got %d", n)
	}
}

func TestRecordActivity(t *testing.T) {
	s := newTestStore(t)
	if err := s.RecordActivity("alice", "query", time.Now()); err != nil {
		t.Fatalf("record activity: %v", err)
	}
}

func TestRecentActivityNewestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i, action := range []string{"login", "query", "logout"} {
		if err := s.RecordActivity("alice", action, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := s.RecentActivity(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Action != "logout" || got[1].Action != "query" {
		t.Errorf("expected newest first, got %v", got)
	}
	if got[0].User != "alice" {
		t.Errorf("expected user on the row, got %q", got[0].User)
	}
}

// The store must satisfy the recorder seams of its consumers.
var (
	_ filter.Recorder  = (*Store)(nil)
	_ session.Recorder = (*Store)(nil)
)
