// Package session tracks active call sessions and archives their
// transcripts.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"insurance-voice-agent/internal/conversation"
	"insurance-voice-agent/internal/observability/metrics"
)

// ErrNotFound is returned when a session ID is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session is one active call. Lock it while running the workflow so
// concurrent uploads for the same session serialize.
type Session struct {
	ID string

	mu         sync.Mutex
	State      *conversation.State
	lastActive time.Time
}

// Lock acquires the per-session lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Config holds session manager settings.
type Config struct {
	// TTL is how long an idle session survives before the sweeper
	// removes it.
	TTL time.Duration

	// SweepInterval is how often expired sessions are collected.
	SweepInterval time.Duration

	// LogDir is where transcripts are archived.
	LogDir string

	// MaxTurns bounds each call.
	MaxTurns int
}

// Manager owns the live session table. Session lifecycle metrics are
// accounted here so implicit sessions and TTL evictions are counted
// the same as explicit ones.
type Manager struct {
	cfg      Config
	mu       sync.RWMutex
	sessions map[string]*Session
	metrics  *metrics.Metrics
	done     chan struct{}
	closeOne sync.Once
}

// NewManager creates a session manager and starts its sweeper.
func NewManager(cfg Config) *Manager {
	if cfg.TTL == 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}
	m := &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
		metrics:  metrics.DefaultMetrics,
		done:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Create starts a new session with a fresh web_<uuid> ID.
func (m *Manager) Create() *Session {
	id := "web_" + uuid.NewString()
	s := &Session{
		ID:         id,
		State:      conversation.NewState(id, m.cfg.MaxTurns),
		lastActive: time.Now(),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.metrics.SessionsStarted.Inc()
	m.metrics.SessionsActive.Inc()

	log.Info().Str("sessionId", id).Msg("Session created")
	return s
}

// Get returns an active session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
	return s, nil
}

// Count reports the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// End archives the session transcript and removes it from the table.
// The caller must not hold the session lock.
func (m *Manager) End(s *Session) {
	m.mu.Lock()
	_, present := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	if present {
		m.metrics.SessionsActive.Dec()
	}
	if err := m.archive(s); err != nil {
		log.Error().Err(err).Str("sessionId", s.ID).Msg("Failed to archive transcript")
	}
}

// archive writes the call transcript under LogDir/<sessionID>/.
func (m *Manager) archive(s *Session) error {
	if m.cfg.LogDir == "" {
		return nil
	}

	s.mu.Lock()
	st := s.State
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session ID: %s\n", st.SessionID)
	fmt.Fprintf(&sb, "Intent: %s\n", orNA(string(st.Intent)))
	fmt.Fprintf(&sb, "Turns: %d\n", st.CurrentTurn)
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")
	sb.WriteString(strings.Join(st.Transcript, "\n"))
	sb.WriteString("\n")
	s.mu.Unlock()

	dir := filepath.Join(m.cfg.LogDir, s.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "transcript.txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return err
	}

	log.Info().Str("sessionId", s.ID).Str("path", path).Msg("Transcript archived")
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// sweep drops sessions idle past the TTL.
func (m *Manager) sweep() {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.expire(time.Now().Add(-m.cfg.TTL))
		}
	}
}

func (m *Manager) expire(cutoff time.Time) {
	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastActive.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.metrics.SessionsActive.Dec()
		m.metrics.SessionsEnded.WithLabelValues("expired").Inc()
		log.Info().Str("sessionId", s.ID).Msg("Session expired")
		if err := m.archive(s); err != nil {
			log.Error().Err(err).Str("sessionId", s.ID).Msg("Failed to archive expired session")
		}
	}
}

// Close stops the sweeper. Active sessions are left un-archived.
func (m *Manager) Close() {
	m.closeOne.Do(func() { close(m.done) })
}
