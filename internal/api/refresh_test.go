package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/controller"
	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/service"
	"github.com/asverdlov/edushop/internal/storage/memory"
	"github.com/asverdlov/edushop/internal/util"
)

type refreshHarness struct {
	e        *echo.Echo
	auth     *service.AuthService
	sessions *memory.InMemorySessionManager
}

func newRefreshHarness(t *testing.T) *refreshHarness {
	t.Helper()

	tokens := service.NewTokenService(&util.TokenConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	sessions := memory.NewSessionRepository()
	auth := service.NewAuthService(tokens, sessions, memory.NewUserRepository(), zap.NewNop().Sugar())
	cookies := controller.NewCookiePolicy(time.Minute, time.Hour, false)
	ct := controller.NewController(controller.Services{Auth: auth}, cookies, nil, zap.NewNop().Sugar())

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop().Sugar())
	e.POST("/refresh", ct.Refresh)

	return &refreshHarness{e: e, auth: auth, sessions: sessions}
}

func (h *refreshHarness) signup(t *testing.T, email string) *models.TokenPair {
	t.Helper()
	binding := models.ClientBinding{
		UAHash: util.SHA256Hex(testUserAgent),
		FPHash: util.SHA256Hex(testFingerprint),
	}
	_, pair, err := h.auth.Signup(context.Background(), email, "longenough", "Test User", binding)
	require.NoError(t, err)
	return pair
}

func (h *refreshHarness) refresh(pair *models.TokenPair, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.Header.Set("User-Agent", testUserAgent)
	req.Header.Set(controller.HeaderClientFingerprint, testFingerprint)
	if pair != nil {
		req.AddCookie(&http.Cookie{Name: controller.CookieRefreshToken, Value: pair.RefreshToken})
		req.AddCookie(&http.Cookie{Name: controller.CookieSessionID, Value: pair.SessionID})
	}
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestRefreshWithoutCookie(t *testing.T) {
	h := newRefreshHarness(t)
	pair := h.signup(t, "a@b.c")

	rec := h.refresh(nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No refresh token", reason(t, rec))

	// The early rejection never reaches the session store: the signup
	// session is still usable.
	active, err := h.sessions.IsSessionActive(context.Background(), 1, util.SHA256Hex(pair.RefreshToken), pair.SessionID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestRefreshReusesRefreshToken(t *testing.T) {
	h := newRefreshHarness(t)
	pair := h.signup(t, "a@b.c")

	rec := h.refresh(pair, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["access"])

	cookies := responseCookies(rec)

	access := cookies[controller.CookieAccessToken]
	require.NotNil(t, access)
	assert.Equal(t, body["access"], access.Value)
	assert.Positive(t, access.MaxAge)

	// The refresh token and session id come back unchanged, only their
	// Max-Age restarts.
	refresh := cookies[controller.CookieRefreshToken]
	require.NotNil(t, refresh)
	assert.Equal(t, pair.RefreshToken, refresh.Value)
	assert.Positive(t, refresh.MaxAge)

	sid := cookies[controller.CookieSessionID]
	require.NotNil(t, sid)
	assert.Equal(t, pair.SessionID, sid.Value)
	assert.Positive(t, sid.MaxAge)

	fp := cookies[controller.FingerprintCookie]
	require.NotNil(t, fp)
	assert.Equal(t, testFingerprint, fp.Value)
}

func TestRefreshContextMismatch(t *testing.T) {
	h := newRefreshHarness(t)
	pair := h.signup(t, "a@b.c")

	rec := h.refresh(pair, func(r *http.Request) {
		r.Header.Set(controller.HeaderClientFingerprint, "stolen-on-another-device")
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh context mismatch", reason(t, rec))

	cookies := responseCookies(rec)
	for _, name := range []string{controller.CookieAccessToken, controller.CookieRefreshToken, controller.CookieSessionID} {
		require.NotNil(t, cookies[name])
		assert.Negative(t, cookies[name].MaxAge)
	}
}
