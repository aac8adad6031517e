package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// (GET /api/products).
func (ct *Controller) ListProducts(c echo.Context) error {
	products, err := ct.catalog.ListProducts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

// (GET /api/products/:id).
func (ct *Controller) GetProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	product, err := ct.catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}
