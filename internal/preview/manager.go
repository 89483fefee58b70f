package preview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tommyzki/tommyzki-translate/internal/globaltime"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
)

const (
	defaultIdleTTL     = 2 * time.Hour
	defaultMaxSessions = 1000
	defaultSweepEvery  = time.Minute
)

// Factory builds the orchestrator for a new session.
type Factory func(sessionID string) *Orchestrator

// ManagerOptions tunes a Manager. Zero values use defaults.
type ManagerOptions struct {
	IdleTTL       time.Duration
	MaxSessions   int
	SweepInterval time.Duration
	Now           func() time.Time
}

type session struct {
	orchestrator *Orchestrator
	lastSeen     time.Time
}

// Manager keeps one orchestrator per browser session and closes idle ones.
type Manager struct {
	factory Factory
	opts    ManagerOptions
	logger  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewManager(factory Factory, opts ManagerOptions, logger zerolog.Logger) *Manager {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = defaultMaxSessions
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepEvery
	}
	if opts.Now == nil {
		opts.Now = globaltime.UTC
	}

	return &Manager{
		factory:  factory,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Create starts a new session.
func (m *Manager) Create() (string, *Orchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.opts.MaxSessions {
		return "", nil, ErrTooManySessions
	}

	id := uuid.NewString()
	orchestrator := m.factory(id)
	m.sessions[id] = &session{orchestrator: orchestrator, lastSeen: m.opts.Now()}

	m.logger.Debug().Str("session_id", id).Int("sessions", len(m.sessions)).Msg("session created")
	return id, orchestrator, nil
}

// Get returns the orchestrator of a live session and marks it as used.
func (m *Manager) Get(id string) (*Orchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = m.opts.Now()
	return s.orchestrator, nil
}

// Delete closes and forgets one session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.orchestrator.Close()
	m.logger.Debug().Str("session_id", id).Msg("session closed")
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the idle TTL and returns how many it closed.
func (m *Manager) Sweep() int {
	now := m.opts.Now()

	m.mu.Lock()
	expired := make([]*Orchestrator, 0)
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) >= m.opts.IdleTTL {
			expired = append(expired, s.orchestrator)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, orchestrator := range expired {
		orchestrator.Close()
	}
	if len(expired) > 0 {
		m.logger.Info().Int("closed", len(expired)).Msg("idle sessions swept")
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done, then closes every session.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// CloseAll closes and forgets every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.orchestrator.Close()
	}
}
