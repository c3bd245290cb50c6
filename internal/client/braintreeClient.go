package client

import (
	"context"
	"fmt"

	"ecommerce-checkout/internal/config"
	"ecommerce-checkout/internal/model"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

// --- INTERFACE ---

type BraintreeClient interface {
	// GenerateClientToken returns a token the browser's drop-in UI uses to collect card details
	GenerateClientToken(ctx context.Context) (string, error)

	// Sale charges a one-time payment method nonce
	Sale(ctx context.Context, req *SaleRequest) (*model.TransactionResult, error)
}

type SaleRequest struct {
	Amount              decimal.Decimal
	PaymentMethodNonce  string
	SubmitForSettlement bool
}

// --- IMPLEMENTATION ---

type braintreeClientImpl struct {
	gateway  *braintree.Braintree
	currency string
}

// NewBraintreeClient initializes the Braintree SDK gateway
func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	return &braintreeClientImpl{
		gateway: braintree.New(
			braintreeEnvironment(cfg.Environment),
			cfg.MerchantID,
			cfg.PublicKey,
			cfg.PrivateKey,
		),
		currency: cfg.Currency,
	}
}

func braintreeEnvironment(name string) braintree.Environment {
	if name == "production" {
		return braintree.Production
	}
	return braintree.Sandbox
}

// --- METHODS ---

func (c *braintreeClientImpl) GenerateClientToken(ctx context.Context) (token string, err error) {
	defer recoverGatewayPanic(&err)

	token, err = c.gateway.ClientToken().Generate(ctx)
	if err != nil {
		return "", err
	}

	return token, nil
}

func (c *braintreeClientImpl) Sale(ctx context.Context, req *SaleRequest) (result *model.TransactionResult, err error) {
	defer recoverGatewayPanic(&err)

	amount, err := ToBraintreeAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	tx, err := c.gateway.Transaction().Create(ctx, &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             amount,
		PaymentMethodNonce: req.PaymentMethodNonce,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: req.SubmitForSettlement,
		},
	})
	if err != nil {
		return nil, err
	}

	switch tx.Status {
	case braintree.TransactionStatusProcessorDeclined:
		return nil, fmt.Errorf("transaction declined by processor: %s", tx.ProcessorResponseText)
	case braintree.TransactionStatusGatewayRejected:
		return nil, fmt.Errorf("transaction rejected by gateway: %s", tx.Id)
	case braintree.TransactionStatusFailed:
		return nil, fmt.Errorf("transaction failed: %s", tx.ProcessorResponseText)
	}

	return toTransactionResult(tx, c.currency), nil
}

// ToBraintreeAmount converts a money value into braintree's scaled decimal.
// Braintree expects NewDecimal(unscaled, scale); for 2 decimal places
// "50.00" * 100 = 5000 -> braintree.NewDecimal(5000, 2)
func ToBraintreeAmount(amount decimal.Decimal) (*braintree.Decimal, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("invalid amount %s: must not be negative", amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return nil, fmt.Errorf("invalid amount %s: more than 2 decimal places", amount)
	}

	cents := amount.Shift(2).IntPart()
	return braintree.NewDecimal(cents, 2), nil
}

func toTransactionResult(tx *braintree.Transaction, currency string) *model.TransactionResult {
	amount := decimal.Zero
	if tx.Amount != nil {
		amount = decimal.New(tx.Amount.Unscaled, -int32(tx.Amount.Scale))
	}
	if tx.CurrencyISOCode != "" {
		currency = tx.CurrencyISOCode
	}

	return &model.TransactionResult{
		Success: true,
		Transaction: model.Transaction{
			ID:                    tx.Id,
			Status:                string(tx.Status),
			Type:                  tx.Type,
			Amount:                amount,
			CurrencyISOCode:       currency,
			ProcessorResponseText: tx.ProcessorResponseText,
			CreatedAt:             tx.CreatedAt,
		},
	}
}

// the SDK can panic on malformed responses; surface that as an ordinary error
func recoverGatewayPanic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("braintree gateway: %v", r)
	}
}
