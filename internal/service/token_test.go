package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/util"
)

func newTestTokenService(accessTTL, refreshTTL time.Duration) *TokenService {
	return NewTokenService(&util.TokenConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	})
}

func testBinding() models.ClientBinding {
	return models.ClientBinding{
		UAHash: util.SHA256Hex("test-agent"),
		FPHash: util.SHA256Hex("test-fingerprint"),
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	ts := newTestTokenService(time.Minute, time.Hour)
	user := models.User{ID: 42, Email: "user@example.com"}
	b := testBinding()

	token, err := ts.SignAccess(user, "sid-1", b)
	require.NoError(t, err)

	claims, err := ts.VerifyAccess(token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Equal(t, b.UAHash, claims.UAHash)
	assert.Equal(t, b.FPHash, claims.FPHash)
}

func TestRefreshTokenOmitsEmail(t *testing.T) {
	ts := newTestTokenService(time.Minute, time.Hour)

	token, err := ts.SignRefresh(7, "sid-7", testBinding())
	require.NoError(t, err)

	claims, err := ts.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Empty(t, claims.Email)
	assert.Equal(t, "sid-7", claims.SessionID)
}

func TestTokenTypesUseDistinctSecrets(t *testing.T) {
	ts := newTestTokenService(time.Minute, time.Hour)
	b := testBinding()

	access, err := ts.SignAccess(models.User{ID: 1}, "sid", b)
	require.NoError(t, err)
	refresh, err := ts.SignRefresh(1, "sid", b)
	require.NoError(t, err)

	_, err = ts.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ts.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestExpiredTokenRejected(t *testing.T) {
	ts := newTestTokenService(-time.Minute, -time.Minute)

	token, err := ts.SignAccess(models.User{ID: 1}, "sid", testBinding())
	require.NoError(t, err)

	_, err = ts.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestDecodeUnverifiedRecoversClaims(t *testing.T) {
	ts := newTestTokenService(-time.Minute, -time.Minute)

	token, err := ts.SignRefresh(9, "sid-9", testBinding())
	require.NoError(t, err)

	// Verification fails, the unverified decode still yields the subject.
	_, err = ts.VerifyRefresh(token)
	require.Error(t, err)

	claims, err := ts.DecodeUnverified(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
}

func TestDecodeUnverifiedRejectsGarbage(t *testing.T) {
	ts := newTestTokenService(time.Minute, time.Hour)

	_, err := ts.DecodeUnverified("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
