package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	pendingOrderConstraint = "ux_orders_customer_pending"
)

var (
	// ErrPendingOrderExists: у покупателя уже есть корзина (сработал частичный уникальный индекс).
	ErrPendingOrderExists = errors.New("customer already has a pending order")
	// ErrStaleOrder: заказ изменён параллельно, версия не совпала.
	ErrStaleOrder = errors.New("order was modified concurrently")
	ErrDuplicate  = errors.New("duplicate value")
	ErrReferenced = errors.New("foreign key violation")
	ErrCheck      = errors.New("check constraint violation")
)

func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == pendingOrderConstraint {
			return fmt.Errorf("%w: %w", ErrPendingOrderExists, err)
		}
		return fmt.Errorf("%w (%s): %w", ErrDuplicate, pgErr.ConstraintName, err)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w (%s): %w", ErrReferenced, pgErr.ConstraintName, err)
	case pgCheckViolation:
		return fmt.Errorf("%w (%s): %w", ErrCheck, pgErr.ConstraintName, err)
	}
	return err
}

// ConstraintName возвращает имя нарушенного ограничения, если ошибка пришла от PostgreSQL.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
