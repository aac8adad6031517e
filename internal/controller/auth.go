package controller

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/service"
	"github.com/asverdlov/edushop/internal/util"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User *models.User `json:"user"`
	models.TokenPair
}

// (POST /signup).
func (ct *Controller) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "email, password, fullname required")
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Fullname = strings.TrimSpace(req.Fullname)
	if req.Email == "" || req.Password == "" || req.Fullname == "" {
		return util.NewResponseError(http.StatusBadRequest, "email, password, fullname required")
	}

	binding := BindingFromRequest(c)
	if binding.FPHash == "" {
		return util.NewResponseError(http.StatusBadRequest, "%s", service.ErrMissingFingerprint.Error())
	}

	user, pair, err := ct.auth.Signup(c.Request().Context(), req.Email, req.Password, req.Fullname, binding)
	if err != nil {
		return err
	}

	ct.cookies.SetAuthCookies(c, *pair)
	ct.cookies.RefreshFingerprintCookie(c)
	ct.mergeGuestCart(c, user.ID)

	return c.JSON(http.StatusOK, authResponse{User: user, TokenPair: *pair})
}

// (POST /login).
func (ct *Controller) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "email and password required")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return util.NewResponseError(http.StatusBadRequest, "email and password required")
	}

	binding := BindingFromRequest(c)
	if binding.FPHash == "" {
		return util.NewResponseError(http.StatusBadRequest, "%s", service.ErrMissingFingerprint.Error())
	}

	user, pair, err := ct.auth.Login(c.Request().Context(), req.Email, req.Password, binding)
	if err != nil {
		return err
	}

	ct.cookies.SetAuthCookies(c, *pair)
	ct.cookies.RefreshFingerprintCookie(c)
	ct.mergeGuestCart(c, user.ID)

	return c.JSON(http.StatusOK, authResponse{User: user, TokenPair: *pair})
}

// (POST /refresh). Issues a new access token; the refresh token is reused
// as-is, its cookie re-set with a fresh Max-Age.
func (ct *Controller) Refresh(c echo.Context) error {
	refreshCookie, err := c.Cookie(CookieRefreshToken)
	sidCookie, sidErr := c.Cookie(CookieSessionID)
	if err != nil || sidErr != nil || refreshCookie.Value == "" || sidCookie.Value == "" {
		ct.cookies.ClearAuthCookies(c)
		return service.ErrNoRefreshToken
	}

	binding := BindingFromRequest(c)
	access, err := ct.auth.Refresh(c.Request().Context(), refreshCookie.Value, sidCookie.Value, binding)
	if err != nil {
		ct.cookies.ClearAuthCookies(c)
		return err
	}

	ct.cookies.SetAuthCookies(c, models.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshCookie.Value,
		SessionID:    sidCookie.Value,
	})
	ct.cookies.RefreshFingerprintCookie(c)

	return c.JSON(http.StatusOK, map[string]string{"access": access})
}

// (POST /api/auth/logout).
func (ct *Controller) Logout(c echo.Context) error {
	if refreshCookie, err := c.Cookie(CookieRefreshToken); err == nil {
		ct.auth.Logout(c.Request().Context(), refreshCookie.Value)
	}
	ct.cookies.ClearGuestCart(c)
	ct.cookies.ClearAuthCookies(c)
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// (GET /api/me).
func (ct *Controller) Me(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	user, err := ct.users.Get(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

type updateMeRequest struct {
	Fullname string `json:"fullname"`
}

// (PUT /api/me).
func (ct *Controller) UpdateMe(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req updateMeRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Fullname) == "" {
		return util.NewResponseError(http.StatusBadRequest, "fullname required")
	}

	user, err := ct.users.UpdateFullname(c.Request().Context(), userID, strings.TrimSpace(req.Fullname))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
