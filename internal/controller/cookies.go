package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/asverdlov/edushop/internal/models"
)

const (
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
	CookieSessionID    = "sid"
	CookieGuestCart    = "guest_cart"
)

const guestCartMaxAge = 30 * 24 * 60 * 60 // seconds

// CookiePolicy owns every cookie this service sets. All cookies are
// SameSite=Strict on Path=/; only the fingerprint cookie is readable by
// scripts.
type CookiePolicy struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	secure     bool
}

func NewCookiePolicy(accessTTL, refreshTTL time.Duration, secure bool) *CookiePolicy {
	return &CookiePolicy{
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		secure:     secure,
	}
}

func (p *CookiePolicy) cookie(name, value string, httpOnly bool, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   p.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (p *CookiePolicy) SetAuthCookies(c echo.Context, pair models.TokenPair) {
	c.SetCookie(p.cookie(CookieAccessToken, pair.AccessToken, true, int(p.accessTTL.Seconds())))
	c.SetCookie(p.cookie(CookieRefreshToken, pair.RefreshToken, true, int(p.refreshTTL.Seconds())))
	c.SetCookie(p.cookie(CookieSessionID, pair.SessionID, true, int(p.refreshTTL.Seconds())))
}

// ClearAuthCookies runs on every auth rejection path: stale cookies must not
// let the client silently retry.
func (p *CookiePolicy) ClearAuthCookies(c echo.Context) {
	c.SetCookie(p.cookie(CookieAccessToken, "", true, -1))
	c.SetCookie(p.cookie(CookieRefreshToken, "", true, -1))
	c.SetCookie(p.cookie(CookieSessionID, "", true, -1))
}

// SetGuestCart stores the encoded guest cart; an empty encoding drops the
// cookie instead.
func (p *CookiePolicy) SetGuestCart(c echo.Context, encoded string) {
	if encoded == "" {
		p.ClearGuestCart(c)
		return
	}
	c.SetCookie(p.cookie(CookieGuestCart, encoded, true, guestCartMaxAge))
}

func (p *CookiePolicy) ClearGuestCart(c echo.Context) {
	c.SetCookie(p.cookie(CookieGuestCart, "", true, -1))
}

// RefreshFingerprintCookie re-writes the fp cookie whenever the request
// carried a raw fingerprint, so the client and later requests agree on it.
// Not HTTP-only: the frontend reads it back into local storage.
func (p *CookiePolicy) RefreshFingerprintCookie(c echo.Context) {
	raw := RawFingerprint(c)
	if raw == "" {
		return
	}
	c.SetCookie(p.cookie(FingerprintCookie, raw, false, int(p.refreshTTL.Seconds())))
}
