package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecommerce-checkout/internal/client"
	"ecommerce-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderPublisher interface {
	PublishOrderCreated(ctx context.Context, order *model.Order) error
}

type OrderCreatedEvent struct {
	EventID       string          `json:"event_id"`
	OrderID       string          `json:"order_id"`
	BuyerID       string          `json:"buyer_id"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
	ProductIDs    []string        `json:"product_ids"`
	Timestamp     time.Time       `json:"timestamp"`
}

type kafkaOrderPublisher struct {
	producer client.Producer
}

func NewOrderPublisher(producer client.Producer) OrderPublisher {
	return &kafkaOrderPublisher{
		producer: producer,
	}
}

func (p *kafkaOrderPublisher) PublishOrderCreated(ctx context.Context, order *model.Order) error {
	productIDs := make([]string, len(order.Products))
	for i, product := range order.Products {
		productIDs[i] = product.ID
	}

	payload, err := json.Marshal(OrderCreatedEvent{
		EventID:       uuid.NewString(),
		OrderID:       order.ID,
		BuyerID:       order.BuyerID,
		Amount:        order.Amount,
		TransactionID: order.Payment.Transaction.ID,
		ProductIDs:    productIDs,
		Timestamp:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal order created event: %w", err)
	}

	// keyed by buyer so one buyer's events stay ordered on a partition
	return p.producer.Produce(ctx, order.BuyerID, payload)
}

type noopOrderPublisher struct{}

// NewNoopOrderPublisher is used when no broker is configured.
func NewNoopOrderPublisher() OrderPublisher {
	return noopOrderPublisher{}
}

func (noopOrderPublisher) PublishOrderCreated(context.Context, *model.Order) error {
	return nil
}
