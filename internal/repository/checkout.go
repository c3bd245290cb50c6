package repository

import (
	"context"
	"errors"
	"time"

	"ecommerce-checkout/internal/model"

	"gorm.io/gorm"
)

type CheckoutRepository interface {
	// Begin records a PENDING attempt before the gateway is called.
	// A FAILED attempt under the same key is reset; any other existing
	// attempt is left untouched and ErrAttemptExists is returned.
	Begin(ctx context.Context, attempt *model.CheckoutAttempt) error
	FindByKey(ctx context.Context, key string) (*model.CheckoutAttempt, error)
	MarkCaptured(ctx context.Context, key string, payment *model.TransactionResult) error
	MarkFailed(ctx context.Context, key string, reason string) error
	// MarkCompleted links the saved order; it accepts PENDING as well so an
	// order can still be finalized when recording the capture itself failed.
	MarkCompleted(ctx context.Context, tx *gorm.DB, key string, orderID string, payment *model.TransactionResult) error
	ListCaptured(ctx context.Context) ([]*model.CheckoutAttempt, error)
	// ListPendingBefore returns PENDING attempts last touched before the given time.
	ListPendingBefore(ctx context.Context, before time.Time) ([]*model.CheckoutAttempt, error)
	// FlagPending notes why a PENDING attempt needs attention without moving it.
	FlagPending(ctx context.Context, key string, note string) error
}

type checkoutRepoImpl struct {
	db *gorm.DB
}

func NewCheckoutRepository(db *gorm.DB) CheckoutRepository {
	return &checkoutRepoImpl{
		db: db,
	}
}

func (r *checkoutRepoImpl) Begin(ctx context.Context, attempt *model.CheckoutAttempt) error {
	attempt.Status = model.CheckoutStatusPending
	attempt.Payment = nil
	attempt.OrderID = ""
	attempt.Error = ""

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.CheckoutAttempt
		err := tx.Where("checkout_key = ?", attempt.Key).First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			err = tx.Create(attempt).Error
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAttemptExists
			}
			return err
		case err != nil:
			return err
		case existing.Status != model.CheckoutStatusFailed:
			return ErrAttemptExists
		}

		attempt.CreatedAt = existing.CreatedAt
		return tx.Save(attempt).Error
	})
}

func (r *checkoutRepoImpl) FindByKey(ctx context.Context, key string) (*model.CheckoutAttempt, error) {
	var attempt model.CheckoutAttempt
	err := r.db.WithContext(ctx).
		Where("checkout_key = ?", key).
		First(&attempt).Error

	if err != nil {
		return nil, err
	}

	return &attempt, nil
}

func (r *checkoutRepoImpl) MarkCaptured(ctx context.Context, key string, payment *model.TransactionResult) error {
	return transition(r.db.WithContext(ctx), key, []model.CheckoutStatus{model.CheckoutStatusPending}, &model.CheckoutAttempt{
		Status:    model.CheckoutStatusCaptured,
		Payment:   payment,
		UpdatedAt: time.Now(),
	}, "status", "payment", "updated_at")
}

func (r *checkoutRepoImpl) MarkFailed(ctx context.Context, key string, reason string) error {
	return transition(r.db.WithContext(ctx), key, []model.CheckoutStatus{model.CheckoutStatusPending}, &model.CheckoutAttempt{
		Status:    model.CheckoutStatusFailed,
		Error:     truncate(reason, 1024),
		UpdatedAt: time.Now(),
	}, "status", "error", "updated_at")
}

func (r *checkoutRepoImpl) MarkCompleted(ctx context.Context, tx *gorm.DB, key string, orderID string, payment *model.TransactionResult) error {
	return transition(tx.WithContext(ctx), key, []model.CheckoutStatus{model.CheckoutStatusPending, model.CheckoutStatusCaptured}, &model.CheckoutAttempt{
		Status:    model.CheckoutStatusCompleted,
		Payment:   payment,
		OrderID:   orderID,
		UpdatedAt: time.Now(),
	}, "status", "payment", "order_id", "updated_at")
}

func (r *checkoutRepoImpl) ListCaptured(ctx context.Context) ([]*model.CheckoutAttempt, error) {
	var attempts []*model.CheckoutAttempt
	err := r.db.WithContext(ctx).
		Where("status = ?", model.CheckoutStatusCaptured).
		Order("created_at").
		Find(&attempts).Error

	if err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *checkoutRepoImpl) ListPendingBefore(ctx context.Context, before time.Time) ([]*model.CheckoutAttempt, error) {
	var attempts []*model.CheckoutAttempt
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", model.CheckoutStatusPending, before).
		Order("created_at").
		Find(&attempts).Error

	if err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *checkoutRepoImpl) FlagPending(ctx context.Context, key string, note string) error {
	return transition(r.db.WithContext(ctx), key, []model.CheckoutStatus{model.CheckoutStatusPending}, &model.CheckoutAttempt{
		Error: truncate(note, 1024),
	}, "error")
}

// transition moves an attempt out of one of the expected statuses and refuses any other source state
func transition(db *gorm.DB, key string, from []model.CheckoutStatus, to *model.CheckoutAttempt, columns ...string) error {
	result := db.Model(&model.CheckoutAttempt{}).
		Where("checkout_key = ? AND status IN ?", key, from).
		Select(columns).
		Updates(to)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
