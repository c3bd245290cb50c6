package server

import (
	"context"
	"errors"
	"net/http"

	"ecommerce-checkout/internal/config"
	"ecommerce-checkout/internal/dto"
	"ecommerce-checkout/internal/handler"
	appmiddleware "ecommerce-checkout/internal/middleware"
	"ecommerce-checkout/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	echo             *echo.Echo
	auth             config.Auth
	logger           *zap.Logger
	braintreeHandler *handler.BraintreeHandler
	orderHandler     *handler.OrderHandler
	productHandler   *handler.ProductHandler
}

func NewServer(
	auth config.Auth,
	tokenService service.TokenService,
	checkoutService service.CheckoutService,
	orderService service.OrderService,
	productService service.ProductService,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:             e,
		auth:             auth,
		logger:           logger,
		braintreeHandler: handler.NewBraintreeHandler(tokenService, checkoutService, logger),
		orderHandler:     handler.NewOrderHandler(orderService),
		productHandler:   handler.NewProductHandler(productService),
	}

	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	signedIn := appmiddleware.RequireSignIn(s.auth.Secret, s.auth.Issuer)
	admin := appmiddleware.AdminOnly()

	api.GET("/products", s.productHandler.GetProducts)

	// -------- braintree --------
	braintree := api.Group("/braintree")
	braintree.GET("/token", s.braintreeHandler.GetToken)
	braintree.POST("/payment", s.braintreeHandler.ProcessPayment, signedIn)
	braintree.POST("/reconcile", s.braintreeHandler.Reconcile, signedIn, admin)

	// -------- orders --------
	api.GET("/orders", s.orderHandler.GetOrders, signedIn)
	api.GET("/all-orders", s.orderHandler.GetAllOrders, signedIn, admin)
	api.PUT("/order-status/:orderId", s.orderHandler.UpdateOrderStatus, signedIn, admin)
}

// handleError renders errors returned by handlers in the same envelope the
// checkout endpoints use.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, dto.Fail(message, nil))
	}
	if err != nil {
		s.logger.Warn("write error response", zap.Error(err))
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
