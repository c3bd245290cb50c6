package repository

import (
	"context"

	"ecommerce-checkout/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error)
	List(ctx context.Context) ([]*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: "tshirt", Name: "Cotton T-Shirt", Price: decimal.RequireFromString("19.99"), Quantity: 100},
		{ID: "mug", Name: "Ceramic Mug", Price: decimal.RequireFromString("9.50"), Quantity: 250},
		{ID: "hoodie", Name: "Zip Hoodie", Price: decimal.RequireFromString("49.00"), Quantity: 40},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) List(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Order("name").
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}
