package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/starmap-generator/backend/internal/logging"
	"github.com/starmap-generator/backend/internal/models"
	"github.com/starmap-generator/backend/internal/render"
)

var sessionLog = logging.Module("session")

// DefaultMaxSessions limits concurrent canvases to bound bitmap memory.
const DefaultMaxSessions = 50

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

var (
	// ErrSessionNotFound is returned for an unknown or expired session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when every slot holds a rendering session.
	ErrTooManySessions = errors.New("too many active sessions")
)

// Composer runs a render pass against a canvas.
type Composer interface {
	Compose(ctx context.Context, canvas *render.Canvas, view models.View, req models.RenderRequest) (*models.RenderResult, error)
}

// Manager owns the canvas of every open page.
type Manager struct {
	sessions    map[string]*SessionState
	mu          sync.RWMutex
	composer    Composer
	maxSessions int
}

// SessionState holds the session metadata and its canvas.
type SessionState struct {
	Session      models.CanvasSession
	Canvas       *render.Canvas
	LastAccessed time.Time
	inflight     int
}

// NewManager creates a session manager. maxSessions <= 0 uses DefaultMaxSessions.
func NewManager(composer Composer, maxSessions int) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Manager{
		sessions:    make(map[string]*SessionState),
		composer:    composer,
		maxSessions: maxSessions,
	}
}

// CreateSession opens a new empty canvas.
func (m *Manager) CreateSession() (models.CanvasSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions && !m.evictOldestLocked() {
		return models.CanvasSession{}, ErrTooManySessions
	}

	now := time.Now()
	state := &SessionState{
		Session: models.CanvasSession{
			ID:           uuid.New().String(),
			Status:       models.SessionStatusEmpty,
			CreatedAt:    now.UnixMilli(),
			LastAccessed: now.UnixMilli(),
		},
		Canvas:       render.NewCanvas(),
		LastAccessed: now,
	}
	m.sessions[state.Session.ID] = state
	return state.snapshot(), nil
}

// evictOldestLocked drops the least recently used idle session.
func (m *Manager) evictOldestLocked() bool {
	idle := make([]*SessionState, 0, len(m.sessions))
	for _, state := range m.sessions {
		if state.inflight == 0 {
			idle = append(idle, state)
		}
	}
	if len(idle) == 0 {
		return false
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].LastAccessed.Before(idle[j].LastAccessed) })
	victim := idle[0].Session.ID
	delete(m.sessions, victim)
	sessionLog.Info().Str("session", victim).Msg("evicted least recently used session")
	return true
}

// GetSession returns a copy of the session.
func (m *Manager) GetSession(id string) (models.CanvasSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return models.CanvasSession{}, false
	}
	return state.snapshot(), true
}

// TouchSession updates the LastAccessed timestamp for a session.
// This should be called whenever a session is actively being used
// to prevent it from being cleaned up.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.touch(time.Now())
	return true
}

// DeleteSession closes a session and releases its bitmap.
func (m *Manager) DeleteSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Render composes view on the session's canvas. A newer render on the same
// session makes this one return render.ErrStaleRender.
func (m *Manager) Render(ctx context.Context, id string, view models.View, req models.RenderRequest) (*models.RenderResult, error) {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	state.inflight++
	state.Session.Status = models.SessionStatusRendering
	state.touch(time.Now())
	canvas := state.Canvas
	m.mu.Unlock()

	result, err := m.composer.Compose(ctx, canvas, view, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	state.inflight--
	state.touch(time.Now())

	switch {
	case err == nil:
		state.Session.LastView = view
		state.Session.LastError = ""
	case errors.Is(err, render.ErrStaleRender):
	default:
		state.Session.LastError = err.Error()
	}

	if state.inflight == 0 {
		switch {
		case err != nil && !errors.Is(err, render.ErrStaleRender):
			state.Session.Status = models.SessionStatusError
		case canvas.Committed() > 0:
			state.Session.Status = models.SessionStatusReady
		default:
			state.Session.Status = models.SessionStatusEmpty
		}
	}

	if err != nil {
		return nil, err
	}
	sessionLog.Debug().
		Str("session", id).
		Str("view", string(view)).
		Uint64("generation", result.Generation).
		Int64("ms", result.DurationMs).
		Msg("render committed")
	return result, nil
}

// Snapshot returns the last committed bitmap of a session.
func (m *Manager) Snapshot(id string) (image.Image, *models.RenderResult, error) {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if ok {
		state.touch(time.Now())
	}
	m.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	img, result, ok := state.Canvas.Snapshot()
	if !ok {
		return nil, nil, nil
	}
	return img, result, nil
}

// CleanupOldSessions removes sessions idle for longer than maxAge,
// but keeps sessions that have been accessed within SessionKeepAliveWindow
// or are rendering.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	removed := 0
	for id, state := range m.sessions {
		if state.inflight > 0 || state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
			sessionLog.Info().
				Str("session", id).
				Dur("idle", now.Sub(state.LastAccessed).Round(time.Second)).
				Msg("cleaned up idle session")
		}
	}
	return removed
}

func (s *SessionState) touch(now time.Time) {
	s.LastAccessed = now
	s.Session.LastAccessed = now.UnixMilli()
}

func (s *SessionState) snapshot() models.CanvasSession {
	out := s.Session
	out.Generation = s.Canvas.Current()
	out.Committed = s.Canvas.Committed()
	return out
}
