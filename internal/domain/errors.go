package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoUnsettledOrders  = errors.New("no unsettled orders for table")
	ErrSettlementInFlight = errors.New("a pending payment already exists for this table")
	ErrNotPending         = errors.New("payment is not pending")
	ErrAlreadySettled     = errors.New("order is already referenced by a payment")
	ErrTableNotOccupied   = errors.New("table is not occupied")
	ErrUnsettledOrders    = errors.New("table still has unsettled orders")
	ErrStatusConflict     = errors.New("status changed concurrently, retry")
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// PermissionError reports insufficient role or ownership.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return "forbidden: " + e.Reason
}

// InvalidTransitionError names the current and the requested status of a
// refused transition.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %q to %q", e.Entity, e.From, e.To)
}

// TerminalStateError reports an attempt to act on an entity that reached a
// terminal status.
type TerminalStateError struct {
	Entity string
	Status string
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("%s is in terminal status %q", e.Entity, e.Status)
}

// CapacityExceededError reports an open request over the table capacity.
type CapacityExceededError struct {
	Capacity  int
	Requested int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("table seats %d, got %d customers", e.Capacity, e.Requested)
}

// AmountMismatchError reports a payment whose instruments do not add up to
// the amount due. Delta is always non-negative.
type AmountMismatchError struct {
	Expected float64
	Received float64
	Delta    float64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("payment methods sum %.2f, expected %.2f (delta %.2f)", e.Received, e.Expected, e.Delta)
}

// InvalidPaymentMethodError reports an unrecognized or malformed payment
// instrument.
type InvalidPaymentMethodError struct {
	Type   string
	Reason string
}

func (e *InvalidPaymentMethodError) Error() string {
	return fmt.Sprintf("invalid payment method %q: %s", e.Type, e.Reason)
}

// ProductUnavailableError reports an order item whose product is missing or
// flagged unavailable.
type ProductUnavailableError struct {
	ProductID int64
	Name      string
}

func (e *ProductUnavailableError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("product %q is not available", e.Name)
	}
	return fmt.Sprintf("product %d is not available", e.ProductID)
}
