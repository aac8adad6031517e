package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/controller"
	"github.com/asverdlov/edushop/internal/service"
)

// AuthMiddleware guards routes with the access token from the cookie. Every
// rejection clears the auth cookies so a client with stale state stops
// retrying and goes through /refresh or /login.
type AuthMiddleware struct {
	auth    *service.AuthService
	cookies *controller.CookiePolicy
}

func NewAuthMiddleware(auth *service.AuthService, cookies *controller.CookiePolicy) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, cookies: cookies}
}

// RequireAuth verifies the access token and its client context, then stores
// the claims under controller.UserContextKey.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.authenticate(c)
		if err != nil {
			m.cookies.ClearAuthCookies(c)
			return err
		}
		c.Set(controller.UserContextKey, claims)
		return next(c)
	}
}

// OptionalAuth attaches claims when a valid token is present and lets the
// request through anonymously otherwise. Cookies are left alone: a browsing
// guest must not have its fp cookie churned by every catalog read.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claims, err := m.authenticate(c); err == nil {
			c.Set(controller.UserContextKey, claims)
		}
		return next(c)
	}
}

// RequireAdmin wraps RequireAuth and additionally checks the admin flag in
// the database, not in the token: a demoted admin loses access on the next
// request, not at token expiry.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(func(c echo.Context) error {
		claims := controller.CurrentUser(c)
		userID, err := claims.UserID()
		if err != nil {
			return err
		}
		isAdmin, err := m.auth.IsAdmin(c.Request().Context(), userID)
		if err != nil {
			return err
		}
		if !isAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
		}
		return next(c)
	})
}

func (m *AuthMiddleware) authenticate(c echo.Context) (*service.Claims, error) {
	token := accessToken(c)
	if token == "" {
		return nil, service.ErrNoAccessToken
	}

	claims, err := m.auth.Tokens().VerifyAccess(token)
	if err != nil {
		return nil, service.ErrAccessTokenInvalid
	}

	var sid string
	if sidCookie, err := c.Cookie(controller.CookieSessionID); err == nil {
		sid = sidCookie.Value
	}

	binding := controller.BindingFromRequest(c)
	if err := m.auth.CheckAccessContext(claims, sid, binding); err != nil {
		return nil, err
	}
	return claims, nil
}

// accessToken reads the access_token cookie, falling back to a bearer
// Authorization header for non-browser clients.
func accessToken(c echo.Context) string {
	if cookie, err := c.Cookie(controller.CookieAccessToken); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}

func GetLoggerMiddlewareConfig(log *zap.SugaredLogger) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", c.Request().Method,
				"uri", v.URI,
				"status", v.Status,
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				log.Errorw("Request", fields...)
			} else {
				log.Infow("Request", fields...)
			}
			return nil
		},
	}
}
