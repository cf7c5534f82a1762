package repository

import (
	"context"
	"errors"

	"pizzeria-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IngredientRepo interface {
	Create(ctx context.Context, in *models.Ingredient) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
	GetByName(ctx context.Context, name string) (*models.Ingredient, error)
	BatchGetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Ingredient, error)
	List(ctx context.Context) ([]models.Ingredient, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type ingredientRepo struct{ db *gorm.DB }

func NewIngredientRepo(db *gorm.DB) IngredientRepo { return &ingredientRepo{db: db} }

func (r *ingredientRepo) Create(ctx context.Context, in *models.Ingredient) error {
	if in.Allergens == nil {
		in.Allergens = []string{}
	}
	return translate(r.db.WithContext(ctx).Create(in).Error)
}

func (r *ingredientRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var in models.Ingredient
	err := r.db.WithContext(ctx).First(&in, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *ingredientRepo) GetByName(ctx context.Context, name string) (*models.Ingredient, error) {
	var in models.Ingredient
	err := r.db.WithContext(ctx).First(&in, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *ingredientRepo) BatchGetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Ingredient, error) {
	if len(ids) == 0 {
		return []models.Ingredient{}, nil
	}
	var list []models.Ingredient
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *ingredientRepo) List(ctx context.Context) ([]models.Ingredient, error) {
	var list []models.Ingredient
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *ingredientRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM product_ingredients WHERE ingredient_id = ?`, id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Ingredient{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}
