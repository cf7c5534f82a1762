package repository

import (
	"context"
	"errors"

	"pizzeria-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductListFilter struct {
	Kind   *models.ProductKind
	Query  string
	Limit  int
	Offset int
}

type ProductRepo interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByName(ctx context.Context, name string) (*models.Product, error)
	List(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) ProductRepo { return &productRepo{db: db} }

// Create сохраняет товар и связи с уже существующими ингредиентами (сами ингредиенты не апсертятся).
func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	return translate(r.db.WithContext(ctx).Omit("Ingredients.*").Create(p).Error)
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Preload("Ingredients").First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetByName(ctx context.Context, name string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Preload("Ingredients").First(&p, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	if f.Kind != nil {
		q = q.Where("kind = ?", *f.Kind)
	}
	if f.Query != "" {
		q = q.Where("name ILIKE ?", "%"+f.Query+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var list []models.Product
	err := q.Order("kind ASC, name ASC").Limit(f.Limit).Offset(f.Offset).Preload("Ingredients").Find(&list).Error
	return list, total, err
}

func (r *productRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("price", price)
	return tx.RowsAffected > 0, translate(tx.Error)
}

// Delete падает с ErrReferenced, если товар уже есть в строках заказов.
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM product_ingredients WHERE product_id = ?`, id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return translate(res.Error)
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
