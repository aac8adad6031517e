package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage/memory"
)

func TestSweepRevokesOnlyExpiredSessions(t *testing.T) {
	sessions := memory.NewSessionRepository()
	ctx := context.Background()

	old := models.RefreshSession{
		UserID: 1, TokenHash: "old-hash", SessionID: "old-sid",
		UAHash: "ua", FPHash: "fp",
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	fresh := models.RefreshSession{
		UserID: 1, TokenHash: "fresh-hash", SessionID: "fresh-sid",
		UAHash: "ua", FPHash: "fp",
	}
	require.NoError(t, sessions.CreateSession(ctx, old))
	require.NoError(t, sessions.CreateSession(ctx, fresh))

	n, err := sessions.SweepExpiredSessions(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	active, err := sessions.IsSessionActive(ctx, 1, "old-hash", "old-sid")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = sessions.IsSessionActive(ctx, 1, "fresh-hash", "fresh-sid")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestSweeperStartStop(t *testing.T) {
	sessions := memory.NewSessionRepository()
	ctx := context.Background()

	require.NoError(t, sessions.CreateSession(ctx, models.RefreshSession{
		UserID: 1, TokenHash: "h", SessionID: "s",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}))

	sweeper := NewSessionSweeper(sessions, 10*time.Millisecond, time.Minute, zap.NewNop().Sugar())
	sweeper.Start(ctx)

	assert.Eventually(t, func() bool {
		active, err := sessions.IsSessionActive(ctx, 1, "h", "s")
		return err == nil && !active
	}, time.Second, 10*time.Millisecond)

	sweeper.Stop()
}
