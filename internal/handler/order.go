package handler

import (
	"errors"
	"net/http"

	"ecommerce-checkout/internal/dto"
	"ecommerce-checkout/internal/middleware"
	"ecommerce-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.ListForBuyer(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetAllOrders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.ListAll(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	orderID := c.Param("orderId")

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody)
	}

	order, err := h.orderService.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return echo.NewHTTPError(http.StatusBadRequest, verr.Message).SetInternal(err)
		case errors.Is(err, service.ErrOrderNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Order not found")
		}
		return err
	}

	return c.JSON(http.StatusOK, order)
}
