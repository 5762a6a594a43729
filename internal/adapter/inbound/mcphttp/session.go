package mcphttp

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxSessions bounds the session table when no limit is configured.
const DefaultMaxSessions = 256

// SessionInfo describes one live session.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionTable issues and tracks streamable HTTP session IDs. It holds at
// most max live sessions; creating one more evicts the oldest. Evicted and
// terminated IDs are remembered so clients get a "terminated" answer and
// re-initialize.
type SessionTable struct {
	mu         sync.Mutex
	max        int
	now        func() time.Time
	live       map[string]time.Time
	terminated map[string]struct{}
	// order of terminated IDs, oldest first, so the set stays bounded
	terminatedOrder []string
	logger          *slog.Logger
}

// NewSessionTable creates a table holding at most limit live sessions.
func NewSessionTable(limit int, logger *slog.Logger) *SessionTable {
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	return &SessionTable{
		max:        limit,
		now:        time.Now,
		live:       make(map[string]time.Time),
		terminated: make(map[string]struct{}),
		logger:     logger.With("component", "session_table"),
	}
}

// WithClock replaces the table clock; used by tests.
func (t *SessionTable) WithClock(now func() time.Time) *SessionTable {
	t.now = now
	return t
}

// Generate creates a session and returns its ID.
func (t *SessionTable) Generate() string {
	id := uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.live[id] = t.now()
	for len(t.live) > t.max {
		oldest := t.oldestLocked()
		delete(t.live, oldest)
		t.rememberLocked(oldest)
		t.logger.Info("Session evicted.", slog.String("session_id", oldest), slog.Int("max_sessions", t.max))
	}
	t.logger.Debug("Session created.", slog.String("session_id", id), slog.Int("live", len(t.live)))
	return id
}

func (t *SessionTable) oldestLocked() string {
	var (
		oldest   string
		oldestAt time.Time
	)
	for id, at := range t.live {
		if oldest == "" || at.Before(oldestAt) || (at.Equal(oldestAt) && id < oldest) {
			oldest, oldestAt = id, at
		}
	}
	return oldest
}

func (t *SessionTable) rememberLocked(id string) {
	if _, ok := t.terminated[id]; ok {
		return
	}
	t.terminated[id] = struct{}{}
	t.terminatedOrder = append(t.terminatedOrder, id)
	for len(t.terminatedOrder) > t.max {
		delete(t.terminated, t.terminatedOrder[0])
		t.terminatedOrder = t.terminatedOrder[1:]
	}
}

// Validate reports whether sessionID is usable. Well-formed IDs that are
// not live count as terminated.
func (t *SessionTable) Validate(sessionID string) (isTerminated bool, err error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return false, fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.live[sessionID]; ok {
		return false, nil
	}
	return true, nil
}

// Terminate ends a session. Terminating an unknown or already terminated
// session succeeds.
func (t *SessionTable) Terminate(sessionID string) (isNotAllowed bool, err error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return false, fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.live[sessionID]; ok {
		delete(t.live, sessionID)
		t.logger.Info("Session terminated.", slog.String("session_id", sessionID))
	}
	t.rememberLocked(sessionID)
	return false, nil
}

// Len returns the number of live sessions.
func (t *SessionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Sessions lists live sessions, oldest first.
func (t *SessionTable) Sessions() []SessionInfo {
	t.mu.Lock()
	out := make([]SessionInfo, 0, len(t.live))
	for id, at := range t.live {
		out = append(out, SessionInfo{ID: id, CreatedAt: at})
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
