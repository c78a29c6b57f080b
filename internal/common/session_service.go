package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"skylark/opscommand/internal/constants"
	"skylark/opscommand/internal/logging"
	"skylark/opscommand/internal/models"
)

// ErrSessionNotFound is returned for unknown or expired chat sessions
var ErrSessionNotFound = errors.New("session not found")

// SessionService keeps chat histories in a cache with a sliding TTL. Histories
// are stored as JSON text so the in-memory and Redis caches behave alike.
type SessionService struct {
	cache        CacheInterface
	ttl          time.Duration
	systemPrompt string
}

// NewSessionService creates a session service. New sessions start with systemPrompt.
func NewSessionService(cache CacheInterface, ttl time.Duration, systemPrompt string) *SessionService {
	return &SessionService{
		cache:        cache,
		ttl:          ttl,
		systemPrompt: systemPrompt,
	}
}

// TTL returns how long an idle session is kept
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// CreateSession starts a new history seeded with the system prompt
func (s *SessionService) CreateSession(ctx context.Context) (models.History, error) {
	h := models.NewHistory(uuid.New().String(), s.systemPrompt)
	if err := s.SaveSession(ctx, h); err != nil {
		return models.History{}, err
	}
	logging.Info("Chat session created", "session_id", h.SessionID, "ttl", s.ttl.String())
	return h, nil
}

// GetSession loads a history
func (s *SessionService) GetSession(_ context.Context, sessionID string) (models.History, error) {
	val, found := s.cache.Get(key(sessionID))
	if !found {
		return models.History{}, ErrSessionNotFound
	}

	raw, ok := val.(string)
	if !ok {
		return models.History{}, fmt.Errorf("unexpected cache value %T for session %s", val, sessionID)
	}

	var h models.History
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return models.History{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return h, nil
}

// SaveSession stores h and restarts its TTL
func (s *SessionService) SaveSession(_ context.Context, h models.History) error {
	if h.SessionID == "" {
		return errors.New("history has no session id")
	}
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	s.cache.Set(key(h.SessionID), string(data), s.ttl)
	return nil
}

// DeleteSession drops a history. Deleting an unknown session is not an error.
func (s *SessionService) DeleteSession(_ context.Context, sessionID string) error {
	s.cache.Delete(key(sessionID))
	return nil
}

func key(sessionID string) string {
	return string(constants.CachePrefixSession) + sessionID
}
