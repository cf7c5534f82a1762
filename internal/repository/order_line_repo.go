package repository

import (
	"context"
	"errors"

	"pizzeria-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderLineRepo interface {
	BulkCreate(ctx context.Context, lines []models.OrderLine) error
	Upsert(ctx context.Context, lines []models.OrderLine) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error)
	DeleteByOrderID(ctx context.Context, orderID uuid.UUID) (int64, error)
	DeleteExcept(ctx context.Context, orderID uuid.UUID, keep []uuid.UUID) (int64, error)
}

type orderLineRepo struct{ db *gorm.DB }

func NewOrderLineRepo(db *gorm.DB) OrderLineRepo { return &orderLineRepo{db: db} }

// BulkCreate вставляет строки без каскада на Product: товары уже существуют.
func (r *orderLineRepo) BulkCreate(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(&lines).Error)
}

func (r *orderLineRepo) Upsert(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "position"}),
		}).
		Create(&lines).Error)
}

func (r *orderLineRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error) {
	var rows []models.OrderLine
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("order_id = ?", orderID).
		Order("position ASC, created_at ASC").
		Find(&rows).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return rows, err
}

func (r *orderLineRepo) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderLine{})
	return tx.RowsAffected, tx.Error
}

func (r *orderLineRepo) DeleteExcept(ctx context.Context, orderID uuid.UUID, keep []uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).Where("order_id = ?", orderID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	tx := q.Delete(&models.OrderLine{})
	return tx.RowsAffected, tx.Error
}
