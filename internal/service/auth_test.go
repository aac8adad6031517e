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
	"github.com/asverdlov/edushop/internal/util"
)

func newTestAuthService(t *testing.T) (*AuthService, *memory.InMemorySessionManager) {
	t.Helper()
	sessions := memory.NewSessionRepository()
	users := memory.NewUserRepository()
	tokens := newTestTokenService(time.Minute, time.Hour)
	return NewAuthService(tokens, sessions, users, zap.NewNop().Sugar()), sessions
}

func TestSignupIssuesBoundPair(t *testing.T) {
	auth, _ := newTestAuthService(t)
	b := testBinding()

	user, pair, err := auth.Signup(context.Background(), "a@b.c", "longenough", "Alice", b)
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, pair)

	accessClaims, err := auth.Tokens().VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	refreshClaims, err := auth.Tokens().VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)

	// Both tokens share one session id and the client binding.
	assert.Equal(t, pair.SessionID, accessClaims.SessionID)
	assert.Equal(t, pair.SessionID, refreshClaims.SessionID)
	assert.Equal(t, b.UAHash, accessClaims.UAHash)
	assert.Equal(t, b.FPHash, refreshClaims.FPHash)
}

func TestSignupRejectsShortPassword(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, _, err := auth.Signup(context.Background(), "a@b.c", "short", "Alice", testBinding())
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	auth, _ := newTestAuthService(t)
	b := testBinding()

	_, _, err := auth.Signup(context.Background(), "a@b.c", "longenough", "Alice", b)
	require.NoError(t, err)

	_, _, err = auth.Signup(context.Background(), "a@b.c", "otherpassword", "Bob", b)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestIssueTokensRequiresFingerprint(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, _, err := auth.Signup(context.Background(), "a@b.c", "longenough", "Alice",
		models.ClientBinding{UAHash: util.SHA256Hex("ua")})
	assert.ErrorIs(t, err, ErrMissingFingerprint)
}

func TestLogin(t *testing.T) {
	auth, _ := newTestAuthService(t)
	b := testBinding()

	_, _, err := auth.Signup(context.Background(), "a@b.c", "longenough", "Alice", b)
	require.NoError(t, err)

	user, pair, err := auth.Login(context.Background(), "a@b.c", "longenough", b)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", user.Email)
	assert.NotEmpty(t, pair.SessionID)

	_, _, err = auth.Login(context.Background(), "a@b.c", "wrongpassword", b)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Login(context.Background(), "nobody@b.c", "longenough", b)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshDoesNotRotate(t *testing.T) {
	auth, _ := newTestAuthService(t)
	b := testBinding()

	_, pair, err := auth.Signup(context.Background(), "a@b.c", "longenough", "Alice", b)
	require.NoError(t, err)

	// The same refresh token works repeatedly and each call yields a fresh
	// access token bound to the same session.
	access1, err := auth.Refresh(context.Background(), pair.RefreshToken, pair.SessionID, b)
	require.NoError(t, err)
	access2, err := auth.Refresh(context.Background(), pair.RefreshToken, pair.SessionID, b)
	require.NoError(t, err)

	claims, err := auth.Tokens().VerifyAccess(access1)
	require.NoError(t, err)
	assert.Equal(t, pair.SessionID, claims.SessionID)

	claims2, err := auth.Tokens().VerifyAccess(access2)
	require.NoError(t, err)
	assert.Equal(t, pair.SessionID, claims2.SessionID)
}

func TestRefreshContextMismatch(t *testing.T) {
	auth, _ := newTestAuthService(t)
	b := testBinding()

	_, pair, err := auth.Signup(context.Background(), "a@b.c", "longenough", "Alice", b)
	require.NoError(t, err)

	otherDevice := models.ClientBinding{
		UAHash: util.SHA256Hex("test-agent"),
		FPHash: util.SHA256Hex("another-fingerprint"),
	}
	_, err = auth.Refresh(context.Background(), pair.RefreshToken, pair.SessionID, otherDevice)
	assert.ErrorIs(t, err, ErrRefreshContextMismatch)

	_, err = auth.Refresh(context.Background(), pair.RefreshToken, "other-sid", b)
	assert.ErrorIs(t, err, ErrRefreshContextMismatch)

	_, err = auth.Refresh(context.Background(), pair.RefreshToken, pair.SessionID,
		models.ClientBinding{UAHash: b.UAHash})
	assert.ErrorIs(t, err, ErrMissingFingerprint)
}

func TestRefreshAfterRevocation(t *testing.T) {
	auth, sessions := newTestAuthService(t)
	b := testBinding()

	_, pair, err := auth.Signup(context.Background(), "a@b.c", "longenough", "Alice", b)
	require.NoError(t, err)

	n, err := sessions.RevokeSessions(context.Background(), 1, util.SHA256Hex(pair.RefreshToken))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = auth.Refresh(context.Background(), pair.RefreshToken, pair.SessionID, b)
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestInvalidRefreshRevokesSession(t *testing.T) {
	sessions := memory.NewSessionRepository()
	users := memory.NewUserRepository()
	// Refresh tokens expire immediately; the access TTL stays valid.
	tokens := newTestTokenService(time.Minute, -time.Minute)
	auth := NewAuthService(tokens, sessions, users, zap.NewNop().Sugar())
	b := testBinding()

	user, pair, err := auth.Signup(context.Background(), "a@b.c", "longenough", "Alice", b)
	require.NoError(t, err)

	_, err = auth.Refresh(context.Background(), pair.RefreshToken, pair.SessionID, b)
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)

	// Best-effort revocation marked the session row, so the token stays dead
	// even if verification were bypassed.
	active, err := sessions.IsSessionActive(context.Background(), user.ID,
		util.SHA256Hex(pair.RefreshToken), pair.SessionID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestLogoutRevokesSession(t *testing.T) {
	auth, sessions := newTestAuthService(t)
	b := testBinding()

	user, pair, err := auth.Signup(context.Background(), "a@b.c", "longenough", "Alice", b)
	require.NoError(t, err)

	auth.Logout(context.Background(), pair.RefreshToken)

	active, err := sessions.IsSessionActive(context.Background(), user.ID,
		util.SHA256Hex(pair.RefreshToken), pair.SessionID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestLogoutLeavesOtherSessionsAlone(t *testing.T) {
	auth, sessions := newTestAuthService(t)
	b := testBinding()

	user, pair1, err := auth.Signup(context.Background(), "a@b.c", "longenough", "Alice", b)
	require.NoError(t, err)
	_, pair2, err := auth.Login(context.Background(), "a@b.c", "longenough", b)
	require.NoError(t, err)

	auth.Logout(context.Background(), pair1.RefreshToken)

	active, err := sessions.IsSessionActive(context.Background(), user.ID,
		util.SHA256Hex(pair2.RefreshToken), pair2.SessionID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestCheckAccessContext(t *testing.T) {
	auth, _ := newTestAuthService(t)
	b := testBinding()

	_, pair, err := auth.Signup(context.Background(), "a@b.c", "longenough", "Alice", b)
	require.NoError(t, err)

	claims, err := auth.Tokens().VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	assert.NoError(t, auth.CheckAccessContext(claims, pair.SessionID, b))

	err = auth.CheckAccessContext(claims, "", b)
	assert.ErrorIs(t, err, ErrMissingFingerprint)

	err = auth.CheckAccessContext(claims, pair.SessionID, models.ClientBinding{
		UAHash: util.SHA256Hex("other-agent"),
		FPHash: b.FPHash,
	})
	assert.ErrorIs(t, err, ErrTokenContextMismatch)
}
