package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"ecommerce-checkout/internal/client"
	"ecommerce-checkout/internal/config"
	"ecommerce-checkout/internal/dto"
	"ecommerce-checkout/internal/model"
	"ecommerce-checkout/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- fakes ---

type fakeBraintree struct {
	mu         sync.Mutex
	sales      []*client.SaleRequest
	tokenCalls int

	token    string
	tokenErr error
	saleErr  error
	noResult bool
}

func (f *fakeBraintree) GenerateClientToken(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tokenCalls++
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return f.token, nil
}

func (f *fakeBraintree) Sale(_ context.Context, req *client.SaleRequest) (*model.TransactionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sales = append(f.sales, req)
	if f.saleErr != nil {
		return nil, f.saleErr
	}
	if f.noResult {
		return nil, nil
	}
	return &model.TransactionResult{
		Success: true,
		Transaction: model.Transaction{
			ID:     fmt.Sprintf("tx_%d", len(f.sales)),
			Status: "submitted_for_settlement",
			Type:   "sale",
			Amount: req.Amount,
		},
	}, nil
}

func (f *fakeBraintree) saleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sales)
}

type fakePublisher struct {
	mu     sync.Mutex
	orders []*model.Order
	err    error
}

func (p *fakePublisher) PublishOrderCreated(_ context.Context, order *model.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.orders = append(p.orders, order)
	return p.err
}

// failingOrderRepo refuses to save orders, everything else hits the database
type failingOrderRepo struct {
	repository.OrderRepository
	err error
}

func (r *failingOrderRepo) Create(context.Context, *gorm.DB, *model.Order) error {
	return r.err
}

// --- fixture ---

type checkoutFixture struct {
	db           *gorm.DB
	gateway      *fakeBraintree
	publisher    *fakePublisher
	orderRepo    repository.OrderRepository
	checkoutRepo repository.CheckoutRepository
	productRepo  repository.ProductRepository
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := client.InitDB(&config.Database{Driver: "sqlite", URL: ":memory:"}, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T) *checkoutFixture {
	db := newTestDB(t)

	return &checkoutFixture{
		db:           db,
		gateway:      &fakeBraintree{token: "client-token"},
		publisher:    &fakePublisher{},
		orderRepo:    repository.NewOrderRepository(db),
		checkoutRepo: repository.NewCheckoutRepository(db),
		productRepo:  repository.NewProductRepository(db),
	}
}

func (f *checkoutFixture) service(pricer Pricer, orderRepo repository.OrderRepository) CheckoutService {
	if orderRepo == nil {
		orderRepo = f.orderRepo
	}
	return NewCheckoutService(f.db, f.gateway, pricer, orderRepo, f.checkoutRepo, f.publisher, zap.NewNop())
}

func (f *checkoutFixture) orderCount(t *testing.T) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func (f *checkoutFixture) attempt(t *testing.T, key string) *model.CheckoutAttempt {
	t.Helper()

	attempt, err := f.checkoutRepo.FindByKey(context.Background(), key)
	require.NoError(t, err)
	return attempt
}

// --- helpers ---

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func cartOf(prices ...string) []*dto.CartItem {
	cart := make([]*dto.CartItem, len(prices))
	for i, p := range prices {
		cart[i] = &dto.CartItem{
			ID:       fmt.Sprintf("item-%d", i),
			Name:     fmt.Sprintf("Item %d", i),
			Price:    price(p),
			Quantity: 1,
		}
	}
	return cart
}
