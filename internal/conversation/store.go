package conversation

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clothify/backend/pkg/logger"
)

// Persistence is the best-effort external store for session blobs. Failures
// are logged and swallowed; sessions keep working from process memory.
type Persistence interface {
	SaveConversation(ctx context.Context, sessionID string, blob []byte, ttl time.Duration) error
	LoadConversation(ctx context.Context, sessionID string) ([]byte, bool, error)
}

// Store owns the per-session contexts. It is safe for concurrent sessions;
// each Context is still single-session state.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Context
	persistence Persistence
	ttl         time.Duration
}

// NewStore accepts a nil persistence backend.
func NewStore(persistence Persistence, ttl time.Duration) *Store {
	return &Store{
		sessions:    make(map[string]*Context),
		persistence: persistence,
		ttl:         ttl,
	}
}

// Get returns the session's context, reloading a persisted blob when the
// session is not in memory, or creating a fresh one.
func (s *Store) Get(ctx context.Context, sessionID, userID string) *Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.sessions[sessionID]; ok {
		return c
	}

	if s.persistence != nil {
		blob, found, err := s.persistence.LoadConversation(ctx, sessionID)
		if err != nil {
			logger.Warn("Failed to load conversation blob", zap.String("session_id", sessionID), zap.Error(err))
		} else if found {
			var c Context
			if err := json.Unmarshal(blob, &c); err != nil {
				logger.Warn("Failed to decode conversation blob", zap.String("session_id", sessionID), zap.Error(err))
			} else {
				s.sessions[sessionID] = &c
				return &c
			}
		}
	}

	c := NewContext(sessionID, userID)
	s.sessions[sessionID] = c
	return c
}

// Save persists the context, best-effort.
func (s *Store) Save(ctx context.Context, c *Context) {
	if s.persistence == nil {
		return
	}

	blob, err := json.Marshal(c)
	if err != nil {
		logger.Warn("Failed to encode conversation blob", zap.String("session_id", c.SessionID), zap.Error(err))
		return
	}

	if err := s.persistence.SaveConversation(ctx, c.SessionID, blob, s.ttl); err != nil {
		logger.Warn("Failed to persist conversation blob", zap.String("session_id", c.SessionID), zap.Error(err))
	}
}
