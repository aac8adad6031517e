package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/storage"
)

// SessionSweeper periodically revokes session rows older than the refresh
// TTL so the active set stays bounded. Cleanup only: the token's own exp
// claim is the security boundary.
type SessionSweeper struct {
	sessions storage.SessionRepository
	interval time.Duration
	maxAge   time.Duration
	log      *zap.SugaredLogger
	stop     chan struct{}
	done     chan struct{}
}

func NewSessionSweeper(sessions storage.SessionRepository, interval, maxAge time.Duration, log *zap.SugaredLogger) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		maxAge:   maxAge,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *SessionSweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *SessionSweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	n, err := s.sessions.SweepExpiredSessions(ctx, s.maxAge)
	if err != nil {
		s.log.Errorw("session sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Infow("revoked expired sessions", "count", n)
	}
}
