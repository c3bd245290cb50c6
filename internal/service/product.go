package service

import (
	"context"

	"ecommerce-checkout/internal/model"
	"ecommerce-checkout/internal/repository"
)

type ProductService interface {
	List(ctx context.Context) ([]*model.Product, error)
}

type productServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productServiceImpl{
		productRepo: productRepo,
	}
}

func (s *productServiceImpl) List(ctx context.Context) ([]*model.Product, error) {
	return s.productRepo.List(ctx)
}
