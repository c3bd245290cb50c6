package repository

import (
	"context"
	"testing"
	"time"

	"ecommerce-checkout/internal/client"
	"ecommerce-checkout/internal/config"
	"ecommerce-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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

func newAttempt(key string) *model.CheckoutAttempt {
	return &model.CheckoutAttempt{
		Key:     key,
		BuyerID: "buyer-1",
		Amount:  decimal.NewFromInt(600),
		Products: []model.OrderProduct{
			{ID: "a", Name: "A", Price: decimal.NewFromInt(100), Quantity: 1},
			{ID: "b", Name: "B", Price: decimal.NewFromInt(500), Quantity: 1},
		},
	}
}

func TestProductRepository_SeedAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t))

	require.NoError(t, repo.Seed(ctx))
	require.NoError(t, repo.Seed(ctx)) // second seed is a no-op

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	found, err := repo.FindMany(ctx, []string{"mug", "missing"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "mug", found[0].ID)
	assert.True(t, decimal.RequireFromString("9.50").Equal(found[0].Price))
}

func TestOrderRepository_CreateAndQuery(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewOrderRepository(db)

	order := &model.Order{
		ID:      uuid.NewString(),
		BuyerID: "buyer-1",
		Products: []model.OrderProduct{
			{ID: "c", Price: decimal.NewFromInt(3)},
			{ID: "a", Price: decimal.NewFromInt(1)},
			{ID: "b", Price: decimal.NewFromInt(2)},
		},
		Payment: model.TransactionResult{
			Success:     true,
			Transaction: model.Transaction{ID: "tx_1", Status: "submitted_for_settlement", Amount: decimal.NewFromInt(6)},
		},
		Amount:      decimal.NewFromInt(6),
		Status:      model.OrderStatusNotProcessed,
		CheckoutKey: "key-1",
	}
	require.NoError(t, repo.Create(ctx, db, order))

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", got.BuyerID)
	assert.Equal(t, "tx_1", got.Payment.Transaction.ID)
	require.Len(t, got.Products, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got.Products[0].ID, got.Products[1].ID, got.Products[2].ID})
	assert.False(t, got.CreatedAt.IsZero())

	byKey, err := repo.FindByCheckoutKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byKey.ID)

	mine, err := repo.ListByBuyer(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	others, err := repo.ListByBuyer(ctx, "buyer-2")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewOrderRepository(db)

	order := &model.Order{
		ID:          "order-1",
		BuyerID:     "buyer-1",
		Products:    []model.OrderProduct{{ID: "a"}},
		Status:      model.OrderStatusNotProcessed,
		CheckoutKey: "key-1",
	}
	require.NoError(t, repo.Create(ctx, db, order))
	time.Sleep(10 * time.Millisecond)

	updated, err := repo.UpdateStatus(ctx, "order-1", model.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, updated.Status)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = repo.UpdateStatus(ctx, "missing", model.OrderStatusShipped)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCheckoutRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCheckoutRepository(db)

	require.NoError(t, repo.Begin(ctx, newAttempt("key-1")))

	got, err := repo.FindByKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutStatusPending, got.Status)
	assert.Nil(t, got.Payment)
	assert.Len(t, got.Products, 2)

	// pending attempts cannot be restarted
	assert.ErrorIs(t, repo.Begin(ctx, newAttempt("key-1")), ErrAttemptExists)

	payment := &model.TransactionResult{Success: true, Transaction: model.Transaction{ID: "tx_9"}}
	require.NoError(t, repo.MarkCaptured(ctx, "key-1", payment))
	assert.ErrorIs(t, repo.MarkCaptured(ctx, "key-1", payment), ErrInvalidTransition)

	captured, err := repo.ListCaptured(ctx)
	require.NoError(t, err)
	require.Len(t, captured, 1)
	require.NotNil(t, captured[0].Payment)
	assert.Equal(t, "tx_9", captured[0].Payment.Transaction.ID)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.MarkCompleted(ctx, tx, "key-1", "order-1", payment)
	}))

	got, err = repo.FindByKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutStatusCompleted, got.Status)
	assert.Equal(t, "order-1", got.OrderID)

	captured, err = repo.ListCaptured(ctx)
	require.NoError(t, err)
	assert.Empty(t, captured)
}

func TestCheckoutRepository_FailedAttemptCanRestart(t *testing.T) {
	ctx := context.Background()
	repo := NewCheckoutRepository(newTestDB(t))

	require.NoError(t, repo.Begin(ctx, newAttempt("key-1")))
	require.NoError(t, repo.MarkFailed(ctx, "key-1", "card declined"))

	got, err := repo.FindByKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutStatusFailed, got.Status)
	assert.Equal(t, "card declined", got.Error)

	require.NoError(t, repo.Begin(ctx, newAttempt("key-1")))

	got, err = repo.FindByKey(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutStatusPending, got.Status)
	assert.Empty(t, got.Error)

	// a failed attempt can never be completed
	require.NoError(t, repo.MarkFailed(ctx, "key-1", "processor unavailable"))
	db := repo.(*checkoutRepoImpl).db
	assert.ErrorIs(t, repo.MarkCompleted(ctx, db, "key-1", "order-1", nil), ErrInvalidTransition)
}

func TestCheckoutRepository_StalePending(t *testing.T) {
	ctx := context.Background()
	repo := NewCheckoutRepository(newTestDB(t))

	require.NoError(t, repo.Begin(ctx, newAttempt("pending")))
	require.NoError(t, repo.Begin(ctx, newAttempt("captured")))
	require.NoError(t, repo.MarkCaptured(ctx, "captured", &model.TransactionResult{Success: true}))

	stale, err := repo.ListPendingBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stale)

	stale, err = repo.ListPendingBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "pending", stale[0].Key)

	require.NoError(t, repo.FlagPending(ctx, "pending", "needs a look"))
	got, err := repo.FindByKey(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutStatusPending, got.Status)
	assert.Equal(t, "needs a look", got.Error)

	assert.ErrorIs(t, repo.FlagPending(ctx, "captured", "nope"), ErrInvalidTransition)
}
