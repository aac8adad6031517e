package api

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/controller"
	"github.com/asverdlov/edushop/internal/util"
)

type API struct {
	server          *echo.Echo
	controller      *controller.Controller
	log             *zap.SugaredLogger
	gracefulTimeout time.Duration
}

func NewAPI(c *controller.Controller, l *zap.SugaredLogger, sc *util.ServerConfig) *API {
	e := echo.New()

	e.Server.Addr = sc.ServerAddr
	e.Server.WriteTimeout = sc.WriteTimeout
	e.Server.ReadTimeout = sc.ReadTimeout
	e.Server.IdleTimeout = sc.IdleTimeout
	e.HTTPErrorHandler = ErrorHandler(l)

	return &API{
		server:          e,
		controller:      c,
		log:             l,
		gracefulTimeout: sc.GracefulTimeout,
	}
}

func (a *API) Run(ctxBackground context.Context) {
	ctx, stop := signal.NotifyContext(ctxBackground, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.server.Use(echomiddleware.RequestLoggerWithConfig(GetLoggerMiddlewareConfig(a.log)))
	a.registerRoutes()

	a.ListenGracefulShutdown(ctx)
}

func (a *API) registerRoutes() {
	ct := a.controller
	auth := NewAuthMiddleware(ct.Auth(), ct.Cookies())

	a.server.GET("/health", ct.Health)

	// Token endpoints sit at the root, everything else under /api.
	a.server.POST("/signup", ct.Signup)
	a.server.POST("/login", ct.Login)
	a.server.POST("/refresh", ct.Refresh)

	g := a.server.Group("/api")
	g.POST("/auth/logout", ct.Logout)

	g.GET("/products", ct.ListProducts)
	g.GET("/products/:id", ct.GetProduct)
	g.GET("/courses", ct.ListCourses)
	g.GET("/courses/:id", ct.GetCourse, auth.OptionalAuth)

	g.GET("/cart", ct.GetCart, auth.RequireAuth)
	g.POST("/cart/items", ct.AddToCart, auth.RequireAuth)
	g.DELETE("/cart/items/:id", ct.RemoveFromCart, auth.RequireAuth)
	g.POST("/cart/merge", ct.MergeCart, auth.RequireAuth)

	// Guest cart lives in a cookie; no auth anywhere.
	g.GET("/guest-cart", ct.GuestCartDetail)
	g.POST("/guest-cart/items", ct.GuestAddToCart)
	g.DELETE("/guest-cart/items/:productId", ct.GuestRemoveFromCart)
	g.POST("/guest-cart/clear", ct.GuestClearCart)

	g.GET("/me", ct.Me, auth.RequireAuth)
	g.PUT("/me", ct.UpdateMe, auth.RequireAuth)
	g.GET("/me/enrollments", ct.ListEnrollments, auth.RequireAuth)

	g.POST("/checkout", ct.Checkout, auth.RequireAuth)
	g.GET("/orders", ct.ListMyOrders, auth.RequireAuth)
	g.POST("/orders/:id/cancel", ct.CancelMyOrder, auth.RequireAuth)

	g.POST("/courses/:id/enroll", ct.Enroll, auth.RequireAuth)
	g.DELETE("/courses/:id/enroll", ct.Unenroll, auth.RequireAuth)
	g.POST("/courses/:id/progress", ct.RecordProgress, auth.RequireAuth)

	admin := g.Group("/admin", auth.RequireAdmin)
	admin.GET("/users", ct.AdminSearchUsers)
	admin.POST("/users", ct.AdminCreateUser)
	admin.DELETE("/users/:id", ct.AdminDeleteUser)
	admin.PUT("/users/:id/admin", ct.AdminSetAdmin)
	admin.GET("/users/:id/orders", ct.AdminUserOrders)
	admin.GET("/orders", ct.AdminListOrders)
	admin.PUT("/orders/:id/status", ct.AdminSetOrderStatus)
	admin.GET("/products", ct.AdminListProducts)
	admin.POST("/products", ct.AdminCreateProduct)
	admin.PUT("/products/:id", ct.AdminUpdateProduct)
	admin.DELETE("/products/:id", ct.AdminDeleteProduct)
	admin.GET("/courses", ct.AdminListCourses)
	admin.POST("/courses", ct.AdminCreateCourse)
	admin.PUT("/courses/:id", ct.AdminUpdateCourse)
	admin.DELETE("/courses/:id", ct.AdminDeleteCourse)
}

func (a *API) ListenGracefulShutdown(ctx context.Context) {
	go func() {
		err := a.server.Start(a.server.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()
	a.log.Infof("Listening on: %s", a.server.Server.Addr)

	<-ctx.Done()
	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Errorf("shutdown: %v", err)
		return
	}
	a.log.Info("server shutdown completed")
}
