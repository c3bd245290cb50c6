package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecommerce-checkout/internal/client"
	"ecommerce-checkout/internal/config"
	"ecommerce-checkout/internal/logger"
	"ecommerce-checkout/internal/repository"
	"ecommerce-checkout/internal/server"
	"ecommerce-checkout/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := client.InitDB(&cfg.Database, log)
	if err != nil {
		log.Fatal("init database", zap.Error(err))
	}

	braintreeClient := client.NewBraintreeClient(&cfg.BrainTree)

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	checkoutRepo := repository.NewCheckoutRepository(db)

	if err := productRepo.Seed(context.Background()); err != nil {
		log.Fatal("seed products", zap.Error(err))
	}

	pricer, err := service.NewPricer(cfg.Checkout.Pricing, productRepo)
	if err != nil {
		log.Fatal("init pricer", zap.Error(err))
	}

	publisher := service.NewNoopOrderPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		producer := client.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, log)
		defer producer.Close()
		publisher = service.NewOrderPublisher(producer)
	}

	tokenService := service.NewTokenService(braintreeClient, log)
	checkoutService := service.NewCheckoutService(db, braintreeClient, pricer, orderRepo, checkoutRepo, publisher, log)
	orderService := service.NewOrderService(orderRepo)
	productService := service.NewProductService(productRepo)

	// Init HTTP server
	srv := server.NewServer(cfg.Auth, tokenService, checkoutService, orderService, productService, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Checkout.ReconcileInterval > 0 {
		go runReconciler(ctx, checkoutService, cfg.Checkout.ReconcileInterval, log)
	}

	serverAddr := cfg.Address()
	log.Info("starting HTTP server",
		zap.String("address", serverAddr),
		zap.String("environment", cfg.Environment.Name),
		zap.String("pricing", cfg.Checkout.Pricing))
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
}

// runReconciler finalizes captured checkouts whose order was never saved.
func runReconciler(ctx context.Context, checkoutService service.CheckoutService, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := checkoutService.Reconcile(ctx); err != nil {
				log.Error("reconcile checkouts", zap.Error(err))
			}
		}
	}
}
