package handler

import (
	"net/http"

	"ecommerce-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()

	products, err := h.productService.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}
