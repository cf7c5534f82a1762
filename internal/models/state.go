package models

type OrderState string

const (
	OrderStatePending   OrderState = "PENDING"
	OrderStateFinished  OrderState = "FINISHED"
	OrderStateDelivered OrderState = "DELIVERED"
	OrderStateCanceled  OrderState = "CANCELED"
)

var orderTransitions = map[OrderState][]OrderState{
	OrderStatePending:  {OrderStateFinished, OrderStateCanceled},
	OrderStateFinished: {OrderStateDelivered},
}

func (s OrderState) Valid() bool {
	switch s {
	case OrderStatePending, OrderStateFinished, OrderStateDelivered, OrderStateCanceled:
		return true
	}
	return false
}

func (s OrderState) CanTransitionTo(next OrderState) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderState) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func OrderStates() []OrderState {
	return []OrderState{OrderStatePending, OrderStateFinished, OrderStateDelivered, OrderStateCanceled}
}

type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "CARD"
	PaymentCash   PaymentMethod = "CASH"
	PaymentUnpaid PaymentMethod = "UNPAID"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentCash, PaymentUnpaid:
		return true
	}
	return false
}
