package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNotProcessed OrderStatus = "Not Processed"
	OrderStatusProcessing   OrderStatus = "Processing"
	OrderStatusShipped      OrderStatus = "Shipped"
	OrderStatusDelivered    OrderStatus = "Delivered"
	OrderStatusCancelled    OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNotProcessed, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "PENDING"   // charge submitted, outcome unknown
	CheckoutStatusCaptured  CheckoutStatus = "CAPTURED"  // gateway succeeded, order not yet saved
	CheckoutStatusCompleted CheckoutStatus = "COMPLETED" // order saved
	CheckoutStatusFailed    CheckoutStatus = "FAILED"    // gateway refused, nothing captured
)

type Product struct {
	ID        string          `gorm:"primaryKey;size:64;not null" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity  int             `gorm:"not null;default:0" json:"quantity"` // units in stock
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// OrderProduct is one purchased cart line as it was charged.
type OrderProduct struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type Order struct {
	ID          string            `gorm:"primaryKey;size:64;not null" json:"id"`
	BuyerID     string            `gorm:"size:64;index;not null" json:"buyer"`
	Products    []OrderProduct    `gorm:"serializer:json;type:text;not null" json:"products"` // cart order preserved
	Payment     TransactionResult `gorm:"serializer:json;type:text;not null" json:"payment"`  // gateway result, verbatim
	Amount      decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status      OrderStatus       `gorm:"size:32;index;not null" json:"status"`
	CheckoutKey string            `gorm:"size:128;uniqueIndex;not null" json:"-"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// CheckoutAttempt tracks one checkout across the gateway call so that a
// charge captured without a saved order can be finalized later.
type CheckoutAttempt struct {
	Key       string             `gorm:"column:checkout_key;primaryKey;size:128;not null"`
	BuyerID   string             `gorm:"size:64;index;not null"`
	Amount    decimal.Decimal    `gorm:"type:decimal(12,2);not null"`
	Products  []OrderProduct     `gorm:"serializer:json;type:text;not null"`
	Status    CheckoutStatus     `gorm:"size:16;index;not null"`
	Payment   *TransactionResult `gorm:"serializer:json;type:text"`
	OrderID   string             `gorm:"size:64"`
	Error     string             `gorm:"size:1024"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
