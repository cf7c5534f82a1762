package repository

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	DB          *gorm.DB
	Customers   CustomerRepo
	Ingredients IngredientRepo
	Products    ProductRepo
	Orders      OrderRepo
	OrderLines  OrderLineRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:          db,
		Customers:   NewCustomerRepo(db),
		Ingredients: NewIngredientRepo(db),
		Products:    NewProductRepo(db),
		Orders:      NewOrderRepo(db),
		OrderLines:  NewOrderLineRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}
