package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/service"
	"github.com/asverdlov/edushop/internal/util"
)

// UserContextKey holds the verified access-token claims set by the auth
// middleware.
const UserContextKey = "auth_claims"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Auth    *service.AuthService
	Users   *service.UserService
	Catalog *service.CatalogService
	Cart    *service.CartService
	Orders  *service.OrderService
	Courses *service.CourseService
}

type Controller struct {
	auth    *service.AuthService
	users   *service.UserService
	catalog *service.CatalogService
	cart    *service.CartService
	orders  *service.OrderService
	courses *service.CourseService
	cookies *CookiePolicy
	pinger  Pinger
	log     *zap.SugaredLogger
}

func NewController(svc Services, cookies *CookiePolicy, pinger Pinger, log *zap.SugaredLogger) *Controller {
	return &Controller{
		auth:    svc.Auth,
		users:   svc.Users,
		catalog: svc.Catalog,
		cart:    svc.Cart,
		orders:  svc.Orders,
		courses: svc.Courses,
		cookies: cookies,
		pinger:  pinger,
		log:     log,
	}
}

func (ct *Controller) Auth() *service.AuthService { return ct.auth }
func (ct *Controller) Cookies() *CookiePolicy     { return ct.cookies }

// CurrentUser returns the authenticated claims, or nil on routes behind
// OptionalAuth when no valid token was presented.
func CurrentUser(c echo.Context) *service.Claims {
	claims, _ := c.Get(UserContextKey).(*service.Claims)
	return claims
}

func currentUserID(c echo.Context) (int64, error) {
	claims := CurrentUser(c)
	if claims == nil {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return claims.UserID()
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, util.NewResponseError(http.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

func (ct *Controller) Health(c echo.Context) error {
	if err := ct.pinger.Ping(c.Request().Context()); err != nil {
		ct.log.Errorw("health check failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"db": "down"})
	}
	return c.JSON(http.StatusOK, map[string]string{"db": "up"})
}
