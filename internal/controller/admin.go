package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
	"github.com/asverdlov/edushop/internal/util"
)

// (GET /api/admin/users?q=).
func (ct *Controller) AdminSearchUsers(c echo.Context) error {
	users, err := ct.users.Search(c.Request().Context(), strings.TrimSpace(c.QueryParam("q")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

type adminCreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
	IsAdmin  bool   `json:"is_admin"`
}

// (POST /api/admin/users).
func (ct *Controller) AdminCreateUser(c echo.Context) error {
	var req adminCreateUserRequest
	if err := c.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "email, password, fullname required")
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Fullname = strings.TrimSpace(req.Fullname)
	if req.Email == "" || req.Password == "" || req.Fullname == "" {
		return util.NewResponseError(http.StatusBadRequest, "email, password, fullname required")
	}

	user, err := ct.users.Create(c.Request().Context(), req.Email, req.Password, req.Fullname, req.IsAdmin)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// (DELETE /api/admin/users/:id). Admins cannot delete themselves.
func (ct *Controller) AdminDeleteUser(c echo.Context) error {
	selfID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if id == selfID {
		return util.NewResponseError(http.StatusBadRequest, "Cannot delete yourself")
	}
	if err := ct.users.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type setAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

// (PUT /api/admin/users/:id/admin). Admins cannot strip their own flag.
func (ct *Controller) AdminSetAdmin(c echo.Context) error {
	selfID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req setAdminRequest
	if err := c.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "is_admin required")
	}
	if id == selfID && !req.IsAdmin {
		return util.NewResponseError(http.StatusBadRequest, "Cannot demote yourself")
	}

	if err := ct.users.SetAdmin(c.Request().Context(), id, req.IsAdmin); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// (GET /api/admin/users/:id/orders).
func (ct *Controller) AdminUserOrders(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	orders, err := ct.orders.ListUserOrders(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// (GET /api/admin/orders?status=&user_id=&q=&limit=&offset=).
func (ct *Controller) AdminListOrders(c echo.Context) error {
	f := storage.OrderFilter{
		Status: strings.TrimSpace(c.QueryParam("status")),
		Query:  strings.TrimSpace(c.QueryParam("q")),
	}
	if v := c.QueryParam("user_id"); v != "" {
		f.UserID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := c.QueryParam("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}

	orders, err := ct.orders.ListOrders(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

type setOrderStatusRequest struct {
	Status string `json:"status"`
}

// (PUT /api/admin/orders/:id/status).
func (ct *Controller) AdminSetOrderStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req setOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "status required")
	}
	order, err := ct.orders.SetOrderStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// (GET /api/admin/products). Reads the store directly so stock changes show
// up immediately instead of the cached public copy.
func (ct *Controller) AdminListProducts(c echo.Context) error {
	products, err := ct.catalog.ListProductsFresh(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

// (GET /api/admin/courses). Uncached, same as the admin product list.
func (ct *Controller) AdminListCourses(c echo.Context) error {
	courses, err := ct.catalog.ListCoursesFresh(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}

type productRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	PriceCents  int64   `json:"price_cents"`
	ImageURL    *string `json:"image_url"`
	Stock       *int64  `json:"stock"`
}

// (POST /api/admin/products).
func (ct *Controller) AdminCreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" || req.PriceCents < 0 {
		return util.NewResponseError(http.StatusBadRequest, "name and price_cents required")
	}

	product, err := ct.catalog.CreateProduct(c.Request().Context(), models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// (PUT /api/admin/products/:id).
func (ct *Controller) AdminUpdateProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req productRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" || req.PriceCents < 0 {
		return util.NewResponseError(http.StatusBadRequest, "name and price_cents required")
	}

	product, err := ct.catalog.UpdateProduct(c.Request().Context(), models.Product{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// (DELETE /api/admin/products/:id).
func (ct *Controller) AdminDeleteProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := ct.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type createCourseRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

// (POST /api/admin/courses). Courses start with no modules; content is
// attached via update.
func (ct *Controller) AdminCreateCourse(c echo.Context) error {
	var req createCourseRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		return util.NewResponseError(http.StatusBadRequest, "title required")
	}

	id, err := ct.catalog.CreateCourse(c.Request().Context(), strings.TrimSpace(req.Title), req.Description, req.ImageURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"id": id})
}

type updateCourseRequest struct {
	Title       string                `json:"title"`
	Description *string               `json:"description"`
	ImageURL    *string               `json:"image_url"`
	Modules     []models.CourseModule `json:"modules"`
}

// (PUT /api/admin/courses/:id).
func (ct *Controller) AdminUpdateCourse(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateCourseRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		return util.NewResponseError(http.StatusBadRequest, "title required")
	}

	err = ct.catalog.UpdateCourse(c.Request().Context(), models.Course{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Modules:     req.Modules,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// (DELETE /api/admin/courses/:id).
func (ct *Controller) AdminDeleteCourse(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := ct.catalog.DeleteCourse(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
