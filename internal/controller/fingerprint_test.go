package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/asverdlov/edushop/internal/util"
)

func newRequestContext(mutate func(*http.Request)) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestRawFingerprintPriority(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*http.Request)
		want   string
	}{
		{
			name: "primary header wins over everything",
			mutate: func(r *http.Request) {
				r.Header.Set(HeaderClientFingerprint, "primary")
				r.Header.Set(HeaderFP, "short")
				r.Header.Set(HeaderDeviceFingerprint, "legacy")
				r.AddCookie(&http.Cookie{Name: FingerprintCookie, Value: "cookie"})
			},
			want: "primary",
		},
		{
			name: "short header beats legacy header and cookie",
			mutate: func(r *http.Request) {
				r.Header.Set(HeaderFP, "short")
				r.Header.Set(HeaderDeviceFingerprint, "legacy")
				r.AddCookie(&http.Cookie{Name: FingerprintCookie, Value: "cookie"})
			},
			want: "short",
		},
		{
			name: "legacy header beats cookie",
			mutate: func(r *http.Request) {
				r.Header.Set(HeaderDeviceFingerprint, "legacy")
				r.AddCookie(&http.Cookie{Name: FingerprintCookie, Value: "cookie"})
			},
			want: "legacy",
		},
		{
			name: "cookie as last resort",
			mutate: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: FingerprintCookie, Value: "cookie"})
			},
			want: "cookie",
		},
		{
			name:   "nothing anywhere",
			mutate: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RawFingerprint(newRequestContext(tt.mutate)))
		})
	}
}

func TestBindingFromRequest(t *testing.T) {
	c := newRequestContext(func(r *http.Request) {
		r.Header.Set("User-Agent", "test-agent")
		r.Header.Set(HeaderClientFingerprint, "fp-raw")
	})

	b := BindingFromRequest(c)
	assert.Equal(t, util.SHA256Hex("test-agent"), b.UAHash)
	assert.Equal(t, util.SHA256Hex("fp-raw"), b.FPHash)
}

func TestBindingWithoutFingerprint(t *testing.T) {
	c := newRequestContext(nil)

	b := BindingFromRequest(c)
	// The user agent is hashed even when empty; FPHash stays empty.
	assert.Equal(t, util.SHA256Hex(""), b.UAHash)
	assert.Empty(t, b.FPHash)
}
