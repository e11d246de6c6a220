package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"insurance-voice-agent/internal/conversation"
	"insurance-voice-agent/internal/observability/metrics"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(Config{
		TTL:           time.Hour,
		SweepInterval: time.Hour,
		LogDir:        t.TempDir(),
		MaxTurns:      5,
	})
	t.Cleanup(m.Close)
	return m
}

func TestManager_CreateAndGet(t *testing.T) {
	m := newTestManager(t)

	s := m.Create()
	if !strings.HasPrefix(s.ID, "web_") {
		t.Errorf("session ID should carry the web_ prefix: %q", s.ID)
	}
	if s.State.MaxTurns != 5 {
		t.Errorf("unexpected max turns: %d", s.State.MaxTurns)
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != s {
		t.Error("get should return the same session")
	}
	if m.Count() != 1 {
		t.Errorf("expected 1 active session, got %d", m.Count())
	}
}

func TestManager_GetUnknown(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Get("web_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_UniqueIDs(t *testing.T) {
	m := newTestManager(t)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s := m.Create()
		if seen[s.ID] {
			t.Fatalf("duplicate session ID: %s", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestManager_EndArchivesTranscript(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Config{TTL: time.Hour, SweepInterval: time.Hour, LogDir: dir, MaxTurns: 5})
	defer m.Close()

	s := m.Create()
	s.State.Intent = conversation.IntentClaims
	s.State.CurrentTurn = 2
	s.State.AppendAgent("Hello")
	s.State.AppendUser("I need to file a claim")

	m.End(s)

	if m.Count() != 0 {
		t.Errorf("ended session should be removed, count=%d", m.Count())
	}
	if _, err := m.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("ended session should be gone, got %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, s.ID, "transcript.txt"))
	if err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"Session ID: " + s.ID,
		"Intent: claims",
		"Turns: 2",
		"Agent: Hello",
		"User: I need to file a claim",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("transcript missing %q:\n%s", want, text)
		}
	}
}

func TestManager_ArchiveWithoutIntent(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Config{TTL: time.Hour, SweepInterval: time.Hour, LogDir: dir, MaxTurns: 5})
	defer m.Close()

	s := m.Create()
	m.End(s)

	data, err := os.ReadFile(filepath.Join(dir, s.ID, "transcript.txt"))
	if err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
	if !strings.Contains(string(data), "Intent: N/A") {
		t.Errorf("missing intent placeholder:\n%s", data)
	}
}

func TestManager_ActiveGaugeAccounting(t *testing.T) {
	m := newTestManager(t)
	gauge := metrics.DefaultMetrics.SessionsActive
	base := testutil.ToFloat64(gauge)

	ended := m.Create()
	expired := m.Create()
	if got := testutil.ToFloat64(gauge); got != base+2 {
		t.Fatalf("expected gauge %v after two creates, got %v", base+2, got)
	}

	m.End(ended)
	if got := testutil.ToFloat64(gauge); got != base+1 {
		t.Errorf("expected gauge %v after end, got %v", base+1, got)
	}

	// A second End for the same session must not decrement again.
	m.End(ended)
	if got := testutil.ToFloat64(gauge); got != base+1 {
		t.Errorf("double end skewed the gauge: %v, want %v", testutil.ToFloat64(gauge), base+1)
	}

	expired.mu.Lock()
	expired.lastActive = time.Now().Add(-2 * time.Hour)
	expired.mu.Unlock()
	m.expire(time.Now().Add(-time.Hour))

	if got := testutil.ToFloat64(gauge); got != base {
		t.Errorf("expected gauge back to %v after expiry, got %v", base, got)
	}
}

func TestManager_ExpireIdleSessions(t *testing.T) {
	m := newTestManager(t)

	idle := m.Create()
	fresh := m.Create()

	// Backdate the idle session past the cutoff.
	idle.mu.Lock()
	idle.lastActive = time.Now().Add(-2 * time.Hour)
	idle.mu.Unlock()

	m.expire(time.Now().Add(-time.Hour))

	if _, err := m.Get(idle.ID); !errors.Is(err, ErrNotFound) {
		t.Error("idle session should be expired")
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
}
