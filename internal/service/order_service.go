package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"comanda-backend/internal/domain"
	"comanda-backend/internal/events"
	"comanda-backend/internal/repository"
)

const maxItemQuantity = 100

// OrderStore is the persistence surface OrderService needs.
type OrderStore interface {
	Create(ctx context.Context, in repository.CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByTable(ctx context.Context, tableID int64) ([]domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus, deliveredAt *time.Time) (bool, error)
	Cancel(ctx context.Context, id int64, from domain.OrderStatus, reason string, cancelledBy int64) (bool, error)
	IsReferencedBySettlement(ctx context.Context, orderID int64) (bool, error)
}

type OrderTableStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Table, error)
	Update(ctx context.Context, t domain.Table) (*domain.Table, error)
}

type OrderProductStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

// OrderService owns creation and status progression of orders attached to
// an open table session.
type OrderService struct {
	Orders   OrderStore
	Tables   OrderTableStore
	Products OrderProductStore
	Events   events.Publisher
	Logger   *slog.Logger
}

type CreateOrderItemInput struct {
	ProductID    int64
	Quantity     int
	Observations string
}

type CreateOrderInput struct {
	TableID       int64
	Items         []CreateOrderItemInput
	Observations  string
	EstimatedTime *int
}

// Create places a new ticket against an occupied table. Item prices are
// snapshotted from the menu and the order total is always recomputed here,
// never taken from the caller.
func (s OrderService) Create(ctx context.Context, caller Caller, in CreateOrderInput) (*domain.Order, error) {
	table, err := s.Tables.GetByID(ctx, in.TableID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: "table", ID: in.TableID}
		}
		return nil, err
	}
	if table.Status != domain.TableOccupied {
		return nil, domain.ErrTableNotOccupied
	}
	if len(in.Items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Reason: "at least one item is required"}
	}

	waiterID, err := s.resolveWaiter(ctx, caller, table)
	if err != nil {
		return nil, err
	}

	var items []repository.CreateOrderItem
	total := 0.0
	for _, line := range in.Items {
		if line.Quantity < 1 || line.Quantity > maxItemQuantity {
			return nil, &domain.ValidationError{Field: "quantity", Reason: "must be between 1 and 100"}
		}
		product, err := s.Products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &domain.ProductUnavailableError{ProductID: line.ProductID}
			}
			return nil, err
		}
		if !product.Available {
			return nil, &domain.ProductUnavailableError{ProductID: product.ID, Name: product.Name}
		}

		lineTotal := domain.LineTotal(line.Quantity, product.Price)
		items = append(items, repository.CreateOrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     line.Quantity,
			UnitPrice:    product.Price,
			TotalPrice:   lineTotal,
			Observations: line.Observations,
		})
		total += lineTotal
	}

	order, err := s.Orders.Create(ctx, repository.CreateOrderInput{
		TableID:       in.TableID,
		WaiterID:      waiterID,
		Observations:  in.Observations,
		EstimatedTime: in.EstimatedTime,
		TotalAmount:   domain.Round2(total),
		Items:         items,
	})
	if err != nil {
		return nil, err
	}

	s.Events.Publish(ctx, events.OrderCreated, map[string]any{
		"order_id":     order.ID,
		"table_id":     order.TableID,
		"waiter_id":    order.WaiterID,
		"total_amount": order.TotalAmount,
	})
	return order, nil
}

// Transition moves an order through the kitchen graph with a
// compare-and-swap on the current status.
func (s OrderService) Transition(ctx context.Context, caller Caller, orderID int64, to domain.OrderStatus) (*domain.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnsettled(ctx, order); err != nil {
		return nil, err
	}
	if err := domain.CanTransitionOrder(order.Status, to); err != nil {
		return nil, err
	}
	if err := domain.AllowOrderTransition(caller.Role, caller.ID, order, to); err != nil {
		return nil, err
	}

	var deliveredAt *time.Time
	if to == domain.OrderDelivered {
		now := time.Now()
		deliveredAt = &now
	}

	ok, err := s.Orders.UpdateStatus(ctx, orderID, order.Status, to, deliveredAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrStatusConflict
	}

	s.Events.Publish(ctx, events.OrderStatusChanged, map[string]any{
		"order_id": orderID,
		"from":     order.Status,
		"to":       to,
	})
	return s.getOrder(ctx, orderID)
}

// Cancel is terminal: the ticket stays on the books with its reason and the
// canceller, it is never removed.
func (s OrderService) Cancel(ctx context.Context, caller Caller, orderID int64, reason string) (*domain.Order, error) {
	if len(strings.TrimSpace(reason)) < 10 {
		return nil, &domain.ValidationError{Field: "reason", Reason: "must be at least 10 characters"}
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderDelivered || order.Status == domain.OrderCancelled {
		return nil, &domain.TerminalStateError{Entity: "order", Status: string(order.Status)}
	}
	if err := s.ensureUnsettled(ctx, order); err != nil {
		return nil, err
	}
	if caller.IsWaiter() && order.WaiterID != caller.ID {
		return nil, &domain.PermissionError{Reason: "waiters may only cancel their own orders"}
	}

	ok, err := s.Orders.Cancel(ctx, orderID, order.Status, strings.TrimSpace(reason), caller.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrStatusConflict
	}

	s.Events.Publish(ctx, events.OrderStatusChanged, map[string]any{
		"order_id": orderID,
		"from":     order.Status,
		"to":       domain.OrderCancelled,
	})
	return s.getOrder(ctx, orderID)
}

func (s OrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.getOrder(ctx, id)
}

func (s OrderService) ListByTable(ctx context.Context, tableID int64) ([]domain.Order, error) {
	return s.Orders.ListByTable(ctx, tableID)
}

func (s OrderService) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return s.Orders.ListByStatus(ctx, status)
}

// resolveWaiter picks the order's waiter: the table's assignment when it has
// one, otherwise the creator (who then becomes the assignment).
func (s OrderService) resolveWaiter(ctx context.Context, caller Caller, table *domain.Table) (int64, error) {
	if table.AssignedWaiterID != nil {
		if caller.IsWaiter() && *table.AssignedWaiterID != caller.ID {
			return 0, &domain.PermissionError{Reason: "table is assigned to another waiter"}
		}
		return *table.AssignedWaiterID, nil
	}
	if caller.IsWaiter() {
		table.AssignedWaiterID = &caller.ID
		if _, err := s.Tables.Update(ctx, *table); err != nil {
			return 0, err
		}
	}
	return caller.ID, nil
}

func (s OrderService) ensureUnsettled(ctx context.Context, order *domain.Order) error {
	if order.PaymentID != nil {
		return domain.ErrAlreadySettled
	}
	referenced, err := s.Orders.IsReferencedBySettlement(ctx, order.ID)
	if err != nil {
		return err
	}
	if referenced {
		return domain.ErrAlreadySettled
	}
	return nil
}

func (s OrderService) getOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.Orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: "order", ID: id}
		}
		return nil, err
	}
	return order, nil
}
