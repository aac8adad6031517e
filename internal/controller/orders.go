package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// (POST /api/checkout). Turns the user's cart into an order in one
// transaction; stock is checked and decremented inside it.
func (ct *Controller) Checkout(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	order, err := ct.orders.Checkout(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// (GET /api/orders).
func (ct *Controller) ListMyOrders(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	orders, err := ct.orders.ListUserOrders(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// (POST /api/orders/:id/cancel). Cancels the owner's order; stock returns
// only when the order was still in "created".
func (ct *Controller) CancelMyOrder(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	order, err := ct.orders.CancelOrder(c.Request().Context(), userID, orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}
