package service

import "errors"

const (
	MsgNonceRequired      = "Payment nonce is required"
	MsgCartRequired       = "Shopping cart is required"
	MsgCartEmpty          = "Shopping cart cannot be empty"
	MsgInvalidCart        = "Invalid shopping cart"
	MsgInvalidOrderStatus = "Invalid order status"
)

var (
	ErrCheckoutInProgress = errors.New("a checkout with this idempotency key is still in progress")
	ErrIdempotencyKeyUsed = errors.New("idempotency key belongs to another buyer")
	ErrOrderNotFound      = errors.New("order not found")
)

// ValidationError is a client mistake detected before any side effect.
type ValidationError struct {
	Message string
	Detail  string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

// PaymentError wraps a gateway or persistence failure during checkout.
// Err carries the original message that is reported to the client.
type PaymentError struct {
	Op  string
	Err error
}

func (e *PaymentError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}
