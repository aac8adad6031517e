package controller

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/util"
)

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Qty       int64 `json:"qty"`
}

type addToCartResponse struct {
	Added     int64  `json:"added"`
	Remaining *int64 `json:"remaining,omitempty"`
}

// (GET /api/cart).
func (ct *Controller) GetCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	items, err := ct.cart.GetCart(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// (POST /api/cart/items).
func (ct *Controller) AddToCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req addToCartRequest
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return util.NewResponseError(http.StatusBadRequest, "product_id required")
	}

	res, err := ct.cart.AddItem(c.Request().Context(), userID, req.ProductID, req.Qty)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, addToCartResponse{Added: res.Added, Remaining: res.Remaining})
}

// (DELETE /api/cart/items/:id).
func (ct *Controller) RemoveFromCart(c echo.Context) error {
	if _, err := currentUserID(c); err != nil {
		return err
	}
	itemID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := ct.cart.RemoveItem(c.Request().Context(), itemID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// (GET /api/guest-cart). The cookie cart joined against the catalog, with
// negative synthetic line ids.
func (ct *Controller) GuestCartDetail(c echo.Context) error {
	items, err := ct.cart.GuestDetail(c.Request().Context(), readGuestCart(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// (POST /api/guest-cart/items).
func (ct *Controller) GuestAddToCart(c echo.Context) error {
	var req addToCartRequest
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return util.NewResponseError(http.StatusBadRequest, "product_id required")
	}

	items, res, err := ct.cart.GuestAdd(c.Request().Context(), readGuestCart(c), req.ProductID, req.Qty)
	if err != nil {
		return err
	}
	ct.cookies.SetGuestCart(c, encodeGuestCart(items))
	return c.JSON(http.StatusOK, addToCartResponse{Added: res.Added, Remaining: res.Remaining})
}

// (DELETE /api/guest-cart/items/:productId).
func (ct *Controller) GuestRemoveFromCart(c echo.Context) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return err
	}

	items := readGuestCart(c)
	kept := items[:0]
	for _, it := range items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	ct.cookies.SetGuestCart(c, encodeGuestCart(kept))
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// (POST /api/guest-cart/clear).
func (ct *Controller) GuestClearCart(c echo.Context) error {
	ct.cookies.ClearGuestCart(c)
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// (POST /api/cart/merge). Explicit merge for clients whose cookie cart
// predates the login.
func (ct *Controller) MergeCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	merged, err := ct.cart.MergeGuestCart(c.Request().Context(), userID, readGuestCart(c))
	if err != nil {
		return err
	}
	ct.cookies.ClearGuestCart(c)
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "merged": merged})
}

// mergeGuestCart folds the cookie cart into the user's cart after login or
// signup, then drops the cookie. Failures only log: a bad guest cart must
// never break authentication.
func (ct *Controller) mergeGuestCart(c echo.Context, userID int64) {
	items := readGuestCart(c)
	if len(items) == 0 {
		return
	}
	if _, err := ct.cart.MergeGuestCart(c.Request().Context(), userID, items); err != nil {
		ct.log.Warnw("guest cart merge failed", "user_id", userID, "error", err)
		return
	}
	ct.cookies.ClearGuestCart(c)
}

// readGuestCart decodes the guest cart cookie; anything malformed is treated
// as an empty cart.
func readGuestCart(c echo.Context) []models.GuestCartItem {
	cookie, err := c.Cookie(CookieGuestCart)
	if err != nil || cookie.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var items []models.GuestCartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func encodeGuestCart(items []models.GuestCartItem) string {
	if len(items) == 0 {
		return ""
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}
