package memory

import (
	"context"
	"sync"
	"time"

	"github.com/asverdlov/edushop/internal/models"
)

// InMemorySessionManager mirrors the postgres session repository for tests
// and local runs without a database.
type InMemorySessionManager struct {
	mu       sync.RWMutex
	nextID   int64
	sessions []models.RefreshSession
}

func NewSessionRepository() *InMemorySessionManager {
	return &InMemorySessionManager{}
}

func (m *InMemorySessionManager) CreateSession(_ context.Context, session models.RefreshSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	session.ID = m.nextID
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	m.sessions = append(m.sessions, session)
	return nil
}

func (m *InMemorySessionManager) IsSessionActive(_ context.Context, userID int64, tokenHash, sessionID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.sessions {
		if s.UserID == userID && s.TokenHash == tokenHash && s.SessionID == sessionID && s.RevokedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *InMemorySessionManager) RevokeSessions(_ context.Context, userID int64, tokenHash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	var n int64
	for i := range m.sessions {
		s := &m.sessions[i]
		if s.UserID == userID && s.TokenHash == tokenHash && s.RevokedAt == nil {
			s.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

func (m *InMemorySessionManager) SweepExpiredSessions(_ context.Context, maxAge time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	cutoff := now.Add(-maxAge)
	var n int64
	for i := range m.sessions {
		s := &m.sessions[i]
		if s.RevokedAt == nil && s.CreatedAt.Before(cutoff) {
			s.RevokedAt = &now
			n++
		}
	}
	return n, nil
}
