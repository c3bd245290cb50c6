package handler

import (
	"errors"
	"fmt"
	"net/http"

	"ecommerce-checkout/internal/dto"
	"ecommerce-checkout/internal/middleware"
	"ecommerce-checkout/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	msgTokenFailed   = "Error generating payment token"
	msgPaymentFailed = "Error processing payment"
	msgPaymentDone   = "Payment done"
	msgInvalidBody   = "Invalid request payload"
)

type BraintreeHandler struct {
	tokenService    service.TokenService
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

func NewBraintreeHandler(tokenService service.TokenService, checkoutService service.CheckoutService, logger *zap.Logger) *BraintreeHandler {
	return &BraintreeHandler{
		tokenService:    tokenService,
		checkoutService: checkoutService,
		logger:          logger,
	}
}

func (h *BraintreeHandler) GetToken(c echo.Context) error {
	ctx := c.Request().Context()

	token, err := h.tokenService.GenerateClientToken(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.Fail(msgTokenFailed, err))
	}

	return c.JSON(http.StatusOK, &dto.ClientTokenResponse{
		ClientToken: token,
		Success:     true,
	})
}

func (h *BraintreeHandler) ProcessPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Fail(msgInvalidBody, bindError(err)))
	}

	buyerID := middleware.UserID(c)
	idempotencyKey := c.Request().Header.Get("Idempotency-Key")

	_, err := h.checkoutService.Checkout(ctx, buyerID, idempotencyKey, &req)
	if err != nil {
		return h.paymentError(c, err)
	}

	return c.JSON(http.StatusOK, dto.OK(msgPaymentDone))
}

func (h *BraintreeHandler) Reconcile(c echo.Context) error {
	ctx := c.Request().Context()

	reconciled, err := h.checkoutService.Reconcile(ctx)
	if err != nil {
		h.logger.Error("reconcile checkouts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, dto.Fail("Error reconciling payments", err))
	}

	return c.JSON(http.StatusOK, &dto.ReconcileResponse{
		Success:    true,
		Reconciled: reconciled,
	})
}

func (h *BraintreeHandler) paymentError(c echo.Context, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, &dto.Response{Message: verr.Message, Error: verr.Detail})
	}

	if errors.Is(err, service.ErrCheckoutInProgress) || errors.Is(err, service.ErrIdempotencyKeyUsed) {
		return c.JSON(http.StatusConflict, dto.Fail(msgPaymentFailed, err))
	}

	// the cause goes back untouched, the operation only to the log
	var perr *service.PaymentError
	if errors.As(err, &perr) {
		h.logger.Error("checkout failed", zap.String("op", perr.Op), zap.Error(perr.Err))
		return c.JSON(http.StatusInternalServerError, dto.Fail(msgPaymentFailed, perr.Err))
	}

	h.logger.Error("checkout failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, dto.Fail(msgPaymentFailed, err))
}

// bindError drops echo's "code=400, message=" prefix and keeps the binder's text
func bindError(err error) error {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return err
	}
	if msg, ok := he.Message.(string); ok {
		return errors.New(msg)
	}
	if he.Internal != nil {
		return he.Internal
	}
	return fmt.Errorf("%v", he.Message)
}
