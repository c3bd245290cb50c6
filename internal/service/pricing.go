package service

import (
	"context"
	"fmt"

	"ecommerce-checkout/internal/config"
	"ecommerce-checkout/internal/dto"
	"ecommerce-checkout/internal/model"
	"ecommerce-checkout/internal/repository"

	"github.com/shopspring/decimal"
)

// Pricer turns a client cart into the lines that will be charged.
// The total is always the sum of the line prices; Quantity is carried
// through as sent and never scales the charge.
type Pricer interface {
	Price(ctx context.Context, cart []*dto.CartItem) ([]model.OrderProduct, decimal.Decimal, error)
}

func NewPricer(mode string, productRepo repository.ProductRepository) (Pricer, error) {
	switch mode {
	case config.PricingCart:
		return NewCartPricer(), nil
	case config.PricingCatalog:
		return NewCatalogPricer(productRepo), nil
	default:
		return nil, fmt.Errorf("unsupported pricing mode %q", mode)
	}
}

// --- cart pricing ---

type cartPricer struct{}

// NewCartPricer trusts the prices sent by the client.
func NewCartPricer() Pricer {
	return cartPricer{}
}

func (cartPricer) Price(_ context.Context, cart []*dto.CartItem) ([]model.OrderProduct, decimal.Decimal, error) {
	total := decimal.Zero
	lines := make([]model.OrderProduct, 0, len(cart))

	for i, item := range cart {
		if item == nil {
			return nil, decimal.Zero, invalidCart("item %d is empty", i)
		}
		if item.Price == nil {
			return nil, decimal.Zero, invalidCart("item %d has no price", i)
		}
		price := *item.Price
		if price.IsNegative() {
			return nil, decimal.Zero, invalidCart("item %d has a negative price", i)
		}
		if !price.Equal(price.Round(2)) {
			return nil, decimal.Zero, invalidCart("item %d price has more than 2 decimal places", i)
		}

		lines = append(lines, model.OrderProduct{
			ID:       item.ID,
			Name:     item.Name,
			Price:    price,
			Quantity: item.Quantity,
		})
		total = total.Add(price)
	}

	return lines, total, nil
}

// --- catalog pricing ---

type catalogPricer struct {
	productRepo repository.ProductRepository
}

// NewCatalogPricer re-prices every line from the product table by id.
// Client names and prices are replaced with the catalog values.
func NewCatalogPricer(productRepo repository.ProductRepository) Pricer {
	return &catalogPricer{
		productRepo: productRepo,
	}
}

func (p *catalogPricer) Price(ctx context.Context, cart []*dto.CartItem) ([]model.OrderProduct, decimal.Decimal, error) {
	productIDs := make([]string, 0, len(cart))
	for i, item := range cart {
		if item == nil || item.ID == "" {
			return nil, decimal.Zero, invalidCart("item %d has no product id", i)
		}
		productIDs = append(productIDs, item.ID)
	}

	products, err := p.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("get products by cart ids: %w", err)
	}

	productMap := make(map[string]*model.Product, len(products))
	for _, product := range products {
		productMap[product.ID] = product
	}

	total := decimal.Zero
	lines := make([]model.OrderProduct, 0, len(cart))
	for _, item := range cart {
		product, ok := productMap[item.ID]
		if !ok {
			return nil, decimal.Zero, invalidCart("unknown product %q", item.ID)
		}

		lines = append(lines, model.OrderProduct{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			Quantity: item.Quantity,
		})
		total = total.Add(product.Price)
	}

	return lines, total, nil
}

func invalidCart(format string, args ...interface{}) error {
	return &ValidationError{
		Message: MsgInvalidCart,
		Detail:  fmt.Sprintf(format, args...),
	}
}
