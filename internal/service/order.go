package service

import (
	"context"
	"errors"

	"ecommerce-checkout/internal/model"
	"ecommerce-checkout/internal/repository"

	"gorm.io/gorm"
)

type OrderService interface {
	ListForBuyer(ctx context.Context, buyerID string) ([]*model.Order, error)
	ListAll(ctx context.Context) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*model.Order, error)
}

type orderServiceImpl struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderServiceImpl{
		orderRepo: orderRepo,
	}
}

func (s *orderServiceImpl) ListForBuyer(ctx context.Context, buyerID string) ([]*model.Order, error) {
	return s.orderRepo.ListByBuyer(ctx, buyerID)
}

func (s *orderServiceImpl) ListAll(ctx context.Context) ([]*model.Order, error) {
	return s.orderRepo.List(ctx)
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID, status string) (*model.Order, error) {
	orderStatus := model.OrderStatus(status)
	if !orderStatus.Valid() {
		return nil, &ValidationError{Message: MsgInvalidOrderStatus, Detail: status}
	}

	order, err := s.orderRepo.UpdateStatus(ctx, orderID, orderStatus)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	return order, nil
}
