package controller

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asverdlov/edushop/internal/models"
)

func TestGuestCartCookieRoundTrip(t *testing.T) {
	items := []models.GuestCartItem{
		{ProductID: 1, Qty: 2},
		{ProductID: 5, Qty: 1},
	}

	encoded := encodeGuestCart(items)
	require.NotEmpty(t, encoded)

	c := newRequestContext(func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieGuestCart, Value: encoded})
	})
	assert.Equal(t, items, readGuestCart(c))
}

func TestGuestCartCookieMalformed(t *testing.T) {
	for _, value := range []string{"", "%%%", "bm90LWpzb24"} {
		c := newRequestContext(func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: CookieGuestCart, Value: value})
		})
		assert.Nil(t, readGuestCart(c), "value %q", value)
	}
}

func TestEncodeGuestCartEmpty(t *testing.T) {
	assert.Empty(t, encodeGuestCart(nil))
	assert.Empty(t, encodeGuestCart([]models.GuestCartItem{}))
}
