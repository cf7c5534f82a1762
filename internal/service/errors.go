package service

import (
	"errors"
	"fmt"
)

// Базовые виды ошибок. Конкретные ошибки ниже раскрываются в один или несколько
// видов, поэтому транспорт проверяет только errors.Is(err, ErrXxx).
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIllegalState    = errors.New("illegal state")
	ErrNotFound        = errors.New("not found")
	ErrStorage         = errors.New("storage error")
	ErrAlreadyExists   = errors.New("already exists")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
)

var (
	ErrQuantityInvalid      = newError("quantity must be > 0", ErrInvalidArgument)
	ErrUnknownCustomer      = newError("customer does not exist", ErrInvalidArgument, ErrNotFound)
	ErrUnknownProduct       = newError("product does not exist", ErrInvalidArgument, ErrNotFound)
	ErrUnknownIngredient    = newError("ingredient does not exist", ErrInvalidArgument, ErrNotFound)
	ErrPaymentMethodInvalid = newError("payment method must be CARD or CASH", ErrInvalidArgument)
	ErrOrderStateInvalid    = newError("unknown order state", ErrInvalidArgument)

	ErrNoPendingOrder      = newError("customer has no pending order", ErrIllegalState)
	ErrEmptyOrder          = newError("order has no lines", ErrIllegalState)
	ErrNotDeliverable      = newError("cannot deliver a PENDING or CANCELED order", ErrIllegalState)
	ErrAlreadyDelivered    = newError("order already delivered", ErrIllegalState)
	ErrIllegalTransition   = newError("order state transition not allowed", ErrIllegalState)
	ErrConcurrentUpdate    = newError("order changed concurrently", ErrIllegalState)
	ErrPendingNotDeletable = newError("pending order must be canceled before deletion", ErrIllegalState)
	ErrCartTouched         = newError("cart was modified after it went idle", ErrIllegalState)
	ErrPaymentDeclined     = newError("payment declined", ErrIllegalState)
	ErrProductInUse        = newError("product is referenced by orders", ErrIllegalState)

	ErrOrderNotFound      = newError("order not found", ErrNotFound)
	ErrCartNotFound       = newError("customer has no pending order", ErrNotFound)
	ErrCustomerNotFound   = newError("customer not found", ErrNotFound)
	ErrProductNotFound    = newError("product not found", ErrNotFound)
	ErrIngredientNotFound = newError("ingredient not found", ErrNotFound)

	ErrEmailExists      = newError("email already exists", ErrAlreadyExists)
	ErrNationalIDExists = newError("national id already exists", ErrAlreadyExists)
	ErrProductExists    = newError("product name already exists", ErrAlreadyExists)
	ErrIngredientExists = newError("ingredient name already exists", ErrAlreadyExists)

	ErrInvalidCredentials = newError("invalid credentials", ErrUnauthorized)
)

type kindError struct {
	msg   string
	kinds []error
}

func newError(msg string, kinds ...error) error {
	return &kindError{msg: msg, kinds: kinds}
}

func (e *kindError) Error() string   { return e.msg }
func (e *kindError) Unwrap() []error { return e.kinds }

func invalidArgument(msg string) error {
	return newError(msg, ErrInvalidArgument)
}

// storageErr оборачивает ошибку хранилища, сохраняя исходную причину в цепочке.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
