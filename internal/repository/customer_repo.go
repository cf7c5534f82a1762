package repository

import (
	"context"
	"errors"
	"strings"

	"pizzeria-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepo interface {
	Create(ctx context.Context, c *models.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	GetByNationalID(ctx context.Context, nationalID string) (*models.Customer, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.Customer, int64, error)
	UpdateContact(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepo(db *gorm.DB) CustomerRepo { return &customerRepo{db: db} }

func (r *customerRepo) Create(ctx context.Context, c *models.Customer) error {
	return translate(r.db.WithContext(ctx).Omit("Orders").Create(c).Error)
}

func (r *customerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var c models.Customer
	err := r.db.WithContext(ctx).Where("lower(email) = ?", strings.ToLower(email)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) GetByNationalID(ctx context.Context, nationalID string) (*models.Customer, error) {
	var c models.Customer
	err := r.db.WithContext(ctx).Where("national_id = ?", nationalID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("lower(email) = ?", strings.ToLower(email)).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *customerRepo) List(ctx context.Context, limit, offset int) ([]models.Customer, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Customer{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var list []models.Customer
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// UpdateContact меняет только контактные поля. Пароль, email и national_id не трогаются.
func (r *customerRepo) UpdateContact(ctx context.Context, c *models.Customer) error {
	return translate(r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"name":    c.Name,
			"surname": c.Surname,
			"phone":   c.Phone,
			"address": c.Address,
		}).Error)
}

// Delete удаляет покупателя, заказы и их строки уходят каскадом по FK.
func (r *customerRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Customer{})
	return tx.RowsAffected > 0, tx.Error
}
