package repository

import (
	"context"
	"errors"
	"time"

	"pizzeria-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepo единственная точка сохранения заказа. Заголовок и строки пишутся
// одной транзакцией, при любой ошибке откатываются вместе.
type OrderRepo interface {
	Save(ctx context.Context, o *models.Order) error
	Update(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, o *models.Order) error

	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error)
	// FindByState: uuid.Nil в customerID означает "по всем покупателям".
	FindByState(ctx context.Context, state models.OrderState, customerID uuid.UUID) ([]*models.Order, error)
	FindPending(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
	ListStale(ctx context.Context, state models.OrderState, before time.Time, limit int) ([]*models.Order, error)

	WithTx(ctx context.Context, fn func(txRepo OrderRepo) error) error
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) OrderRepo { return &orderRepo{db: db} }

func (r *orderRepo) Save(ctx context.Context, o *models.Order) error {
	if o.Version == 0 {
		o.Version = 1
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(o).Error; err != nil {
			return translate(err)
		}
		for i := range o.Lines {
			o.Lines[i].OrderID = o.ID
			o.Lines[i].Position = i
		}
		return NewOrderLineRepo(tx).BulkCreate(ctx, o.Lines)
	})
}

func (r *orderRepo) Update(ctx context.Context, o *models.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", o.ID, o.Version).
			Updates(map[string]any{
				"state":          o.State,
				"payment_method": o.PaymentMethod,
				"order_date":     o.OrderDate,
				"version":        gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrStaleOrder
		}

		lines := NewOrderLineRepo(tx)
		keep := make([]uuid.UUID, 0, len(o.Lines))
		var fresh, existing []models.OrderLine
		for i := range o.Lines {
			o.Lines[i].OrderID = o.ID
			o.Lines[i].Position = i
			if o.Lines[i].ID == uuid.Nil {
				fresh = append(fresh, o.Lines[i])
				continue
			}
			keep = append(keep, o.Lines[i].ID)
			existing = append(existing, o.Lines[i])
		}

		if _, err := lines.DeleteExcept(ctx, o.ID, keep); err != nil {
			return err
		}
		if err := lines.Upsert(ctx, existing); err != nil {
			return err
		}
		if err := lines.BulkCreate(ctx, fresh); err != nil {
			return err
		}

		// сгенерированные id новых строк обратно в заказ
		j := 0
		for i := range o.Lines {
			if o.Lines[i].ID == uuid.Nil {
				o.Lines[i].ID = fresh[j].ID
				o.Lines[i].CreatedAt = fresh[j].CreatedAt
				j++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.Version++
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := NewOrderLineRepo(tx).DeleteByOrderID(ctx, o.ID); err != nil {
			return err
		}
		return tx.Where("id = ?", o.ID).Delete(&models.Order{}).Error
	})
}

func (r *orderRepo) withLines(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Preload("Lines.Product").
		Preload("Lines.Product.Ingredients")
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var ord models.Order
	err := r.withLines(ctx).First(&ord, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

func (r *orderRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error) {
	var list []*models.Order
	err := r.withLines(ctx).
		Where("customer_id = ?", customerID).
		Order("order_date DESC, created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *orderRepo) FindByState(ctx context.Context, state models.OrderState, customerID uuid.UUID) ([]*models.Order, error) {
	q := r.withLines(ctx).Where("state = ?", state)
	if customerID != uuid.Nil {
		q = q.Where("customer_id = ?", customerID)
	}
	var list []*models.Order
	err := q.Order("order_date DESC, created_at DESC").Find(&list).Error
	return list, err
}

func (r *orderRepo) FindPending(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {
	var ord models.Order
	err := r.withLines(ctx).
		First(&ord, "customer_id = ? AND state = ?", customerID, models.OrderStatePending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

func (r *orderRepo) ListStale(ctx context.Context, state models.OrderState, before time.Time, limit int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var list []*models.Order
	err := r.db.WithContext(ctx).
		Where("state = ? AND updated_at < ?", state, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *orderRepo) WithTx(ctx context.Context, fn func(txRepo OrderRepo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&orderRepo{db: tx})
	})
}
