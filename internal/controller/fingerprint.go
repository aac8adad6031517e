package controller

import (
	"github.com/labstack/echo/v4"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/util"
)

const (
	HeaderClientFingerprint = "X-Client-Fingerprint"
	HeaderFP                = "X-Fp"
	HeaderDeviceFingerprint = "X-Device-Fingerprint"

	FingerprintCookie = "fp"
)

// fingerprintSource is one place a client may carry its raw fingerprint.
// Sources are tried in priority order; the first non-empty value wins.
type fingerprintSource interface {
	lookup(c echo.Context) string
}

type headerSource string

func (h headerSource) lookup(c echo.Context) string {
	return c.Request().Header.Get(string(h))
}

type cookieSource string

func (s cookieSource) lookup(c echo.Context) string {
	cookie, err := c.Cookie(string(s))
	if err != nil {
		return ""
	}
	return cookie.Value
}

//nolint:gochecknoglobals // fixed priority order
var fingerprintSources = []fingerprintSource{
	headerSource(HeaderClientFingerprint),
	headerSource(HeaderFP),
	headerSource(HeaderDeviceFingerprint),
	cookieSource(FingerprintCookie),
}

// RawFingerprint returns the client-supplied fingerprint, or "" when the
// request carries none anywhere.
func RawFingerprint(c echo.Context) string {
	for _, src := range fingerprintSources {
		if v := src.lookup(c); v != "" {
			return v
		}
	}
	return ""
}

// BindingFromRequest derives the context hashes for the current request.
// The user-agent is hashed even when empty; FPHash stays empty without a raw
// fingerprint.
func BindingFromRequest(c echo.Context) models.ClientBinding {
	b := models.ClientBinding{UAHash: util.SHA256Hex(c.Request().UserAgent())}
	if raw := RawFingerprint(c); raw != "" {
		b.FPHash = util.SHA256Hex(raw)
	}
	return b
}
