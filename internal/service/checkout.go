package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecommerce-checkout/internal/client"
	"ecommerce-checkout/internal/dto"
	"ecommerce-checkout/internal/model"
	"ecommerce-checkout/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutService interface {
	// Checkout charges the cart and saves an order for the buyer.
	// idempotencyKey may be empty; a repeated key replays the earlier outcome
	// instead of charging again.
	Checkout(ctx context.Context, buyerID, idempotencyKey string, req *dto.CheckoutRequest) (*model.Order, error)

	// Reconcile saves orders for charges that were captured but never recorded.
	Reconcile(ctx context.Context) (int, error)
}

const (
	// publishTimeout bounds how long a paid checkout waits on the broker
	publishTimeout = 2 * time.Second
	// a PENDING attempt untouched this long lost its gateway outcome
	pendingStaleAfter = 5 * time.Minute
)

type checkoutServiceImpl struct {
	db              *gorm.DB
	braintreeClient client.BraintreeClient
	pricer          Pricer
	orderRepo       repository.OrderRepository
	checkoutRepo    repository.CheckoutRepository
	publisher       OrderPublisher
	logger          *zap.Logger

	now            func() time.Time
	publishTimeout time.Duration
	staleAfter     time.Duration
}

func NewCheckoutService(
	db *gorm.DB,
	braintreeClient client.BraintreeClient,
	pricer Pricer,
	orderRepo repository.OrderRepository,
	checkoutRepo repository.CheckoutRepository,
	publisher OrderPublisher,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		db:              db,
		braintreeClient: braintreeClient,
		pricer:          pricer,
		orderRepo:       orderRepo,
		checkoutRepo:    checkoutRepo,
		publisher:       publisher,
		logger:          logger,
		now:             time.Now,
		publishTimeout:  publishTimeout,
		staleAfter:      pendingStaleAfter,
	}
}

func (s *checkoutServiceImpl) Checkout(ctx context.Context, buyerID, idempotencyKey string, req *dto.CheckoutRequest) (*model.Order, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	key := idempotencyKey
	if key == "" {
		key = uuid.NewString()
	} else {
		order, resumed, err := s.resume(ctx, buyerID, key)
		if resumed || err != nil {
			return order, err
		}
	}

	lines, total, err := s.pricer.Price(ctx, req.Cart)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, &PaymentError{Op: "price cart", Err: err}
	}

	// phase 1: record the attempt before any money moves
	attempt := &model.CheckoutAttempt{
		Key:      key,
		BuyerID:  buyerID,
		Amount:   total,
		Products: lines,
	}
	if err := s.checkoutRepo.Begin(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrAttemptExists) {
			return nil, ErrCheckoutInProgress
		}
		return nil, &PaymentError{Op: "record checkout attempt", Err: err}
	}

	// once submitted the charge cannot be aborted, so the client going away
	// must not cancel the gateway call or the writes that follow it
	ctx = context.WithoutCancel(ctx)

	result, err := s.braintreeClient.Sale(ctx, &client.SaleRequest{
		Amount:              total,
		PaymentMethodNonce:  req.Nonce,
		SubmitForSettlement: true,
	})
	if err == nil && (result == nil || !result.Success) {
		err = errors.New("payment gateway returned no transaction")
	}
	if err != nil {
		s.logger.Warn("braintree sale failed",
			zap.String("checkout_key", key),
			zap.String("buyer_id", buyerID),
			zap.String("amount", total.String()),
			zap.Error(err))

		if markErr := s.checkoutRepo.MarkFailed(ctx, key, err.Error()); markErr != nil {
			s.logger.Error("mark checkout attempt failed", zap.String("checkout_key", key), zap.Error(markErr))
		}
		return nil, &PaymentError{Op: "braintree sale", Err: err}
	}

	s.logger.Info("braintree sale succeeded",
		zap.String("checkout_key", key),
		zap.String("transaction_id", result.Transaction.ID),
		zap.String("amount", total.String()))

	attempt.Payment = result
	if err := s.checkoutRepo.MarkCaptured(ctx, key, result); err != nil {
		// phase 2 below still completes a PENDING attempt
		s.logger.Error("mark checkout attempt captured",
			zap.String("checkout_key", key),
			zap.String("transaction_id", result.Transaction.ID),
			zap.Error(err))
	} else {
		attempt.Status = model.CheckoutStatusCaptured
	}

	order, err := s.finalize(ctx, attempt)
	if err != nil && attempt.Status != model.CheckoutStatusCaptured {
		// without CAPTURED the result is only in memory; one more try so Reconcile can see it
		if markErr := s.checkoutRepo.MarkCaptured(ctx, key, result); markErr != nil {
			s.logger.Error("checkout attempt left pending after capture",
				zap.String("checkout_key", key),
				zap.String("buyer_id", buyerID),
				zap.String("transaction_id", result.Transaction.ID),
				zap.String("amount", total.String()),
				zap.Error(markErr))
		}
	}
	return order, err
}

// resume handles a key that was seen before. resumed is false when the
// caller should go on with a fresh charge.
func (s *checkoutServiceImpl) resume(ctx context.Context, buyerID, key string) (order *model.Order, resumed bool, err error) {
	attempt, err := s.checkoutRepo.FindByKey(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, &PaymentError{Op: "load checkout attempt", Err: err}
	}

	if attempt.BuyerID != buyerID {
		return nil, true, ErrIdempotencyKeyUsed
	}

	switch attempt.Status {
	case model.CheckoutStatusCompleted:
		order, err := s.orderRepo.FindByCheckoutKey(ctx, key)
		if err != nil {
			return nil, true, &PaymentError{Op: "load order", Err: err}
		}
		return order, true, nil
	case model.CheckoutStatusCaptured:
		order, err := s.finalize(context.WithoutCancel(ctx), attempt)
		return order, true, err
	case model.CheckoutStatusPending:
		return nil, true, ErrCheckoutInProgress
	}

	// a FAILED attempt moved no money; charge again
	return nil, false, nil
}

// finalize is phase 2: the order and the attempt's completion commit together.
func (s *checkoutServiceImpl) finalize(ctx context.Context, attempt *model.CheckoutAttempt) (*model.Order, error) {
	if attempt.Payment == nil {
		return nil, &PaymentError{Op: "save order", Err: fmt.Errorf("checkout %s has no payment result", attempt.Key)}
	}

	order := &model.Order{
		ID:          uuid.NewString(),
		BuyerID:     attempt.BuyerID,
		Products:    attempt.Products,
		Payment:     *attempt.Payment,
		Amount:      attempt.Amount,
		Status:      model.OrderStatusNotProcessed,
		CheckoutKey: attempt.Key,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return err
		}
		return s.checkoutRepo.MarkCompleted(ctx, tx, attempt.Key, order.ID, attempt.Payment)
	})
	if err != nil {
		// someone else may have finalized the same attempt first
		if errors.Is(err, repository.ErrInvalidTransition) || errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, findErr := s.orderRepo.FindByCheckoutKey(ctx, attempt.Key); findErr == nil {
				return existing, nil
			}
		}

		s.logger.Error("payment captured but order was not saved",
			zap.String("checkout_key", attempt.Key),
			zap.String("buyer_id", attempt.BuyerID),
			zap.String("transaction_id", attempt.Payment.Transaction.ID),
			zap.String("amount", attempt.Amount.String()),
			zap.Error(err))
		return nil, &PaymentError{Op: "save order", Err: err}
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("buyer_id", order.BuyerID),
		zap.String("transaction_id", order.Payment.Transaction.ID))

	pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderCreated(pubCtx, order); err != nil {
		s.logger.Error("publish order created", zap.String("order_id", order.ID), zap.Error(err))
	}

	return order, nil
}

func (s *checkoutServiceImpl) Reconcile(ctx context.Context) (int, error) {
	attempts, err := s.checkoutRepo.ListCaptured(ctx)
	if err != nil {
		return 0, fmt.Errorf("list captured checkouts: %w", err)
	}

	reconciled := 0
	for _, attempt := range attempts {
		if _, err := s.finalize(ctx, attempt); err != nil {
			continue
		}
		reconciled++
	}

	flagged, err := s.flagStalePending(ctx)
	if err != nil {
		return reconciled, err
	}

	if reconciled > 0 || len(attempts) > 0 || flagged > 0 {
		s.logger.Info("checkout reconcile finished",
			zap.Int("captured", len(attempts)),
			zap.Int("reconciled", reconciled),
			zap.Int("flagged_pending", flagged))
	}

	return reconciled, nil
}

// flagStalePending marks attempts whose gateway outcome was never recorded.
// They stay PENDING: the charge may have gone through, so the key must not
// charge again until someone checks the gateway.
func (s *checkoutServiceImpl) flagStalePending(ctx context.Context) (int, error) {
	stale, err := s.checkoutRepo.ListPendingBefore(ctx, s.now().Add(-s.staleAfter))
	if err != nil {
		return 0, fmt.Errorf("list stale pending checkouts: %w", err)
	}

	flagged := 0
	for _, attempt := range stale {
		if attempt.Error != "" {
			continue
		}

		note := fmt.Sprintf("gateway outcome not recorded since %s; check braintree before releasing this key",
			attempt.UpdatedAt.UTC().Format(time.RFC3339))
		if err := s.checkoutRepo.FlagPending(ctx, attempt.Key, note); err != nil {
			s.logger.Error("flag stale checkout attempt", zap.String("checkout_key", attempt.Key), zap.Error(err))
			continue
		}

		s.logger.Error("checkout attempt stuck in pending",
			zap.String("checkout_key", attempt.Key),
			zap.String("buyer_id", attempt.BuyerID),
			zap.String("amount", attempt.Amount.String()))
		flagged++
	}

	return flagged, nil
}

func validateCheckout(req *dto.CheckoutRequest) error {
	if req == nil || req.Nonce == "" {
		return &ValidationError{Message: MsgNonceRequired}
	}
	if req.Cart == nil {
		return &ValidationError{Message: MsgCartRequired}
	}
	if len(req.Cart) == 0 {
		return &ValidationError{Message: MsgCartEmpty}
	}
	return nil
}
