package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"comanda-backend/internal/domain"
	"comanda-backend/internal/events"
	"comanda-backend/internal/repository"
)

// TableStore is the persistence surface TableService needs.
type TableStore interface {
	Create(ctx context.Context, number, capacity int) (*domain.Table, error)
	List(ctx context.Context) ([]domain.Table, error)
	GetByID(ctx context.Context, id int64) (*domain.Table, error)
	Update(ctx context.Context, t domain.Table) (*domain.Table, error)
	Delete(ctx context.Context, id int64) error
}

// TableOrderStore is the slice of the order repository the table lifecycle
// depends on.
type TableOrderStore interface {
	ListUnsettledByTable(ctx context.Context, tableID int64) ([]domain.Order, error)
}

// TableService owns the table occupancy lifecycle: the session window
// between open and release.
type TableService struct {
	Tables TableStore
	Orders TableOrderStore
	Events events.Publisher
	Logger *slog.Logger
}

type OpenTableInput struct {
	TableID        int64
	CustomerCount  int
	WaiterID       *int64
	Identification string
}

// Open seats guests at a table and starts a session.
func (s TableService) Open(ctx context.Context, caller Caller, in OpenTableInput) (*domain.Table, error) {
	table, err := s.getTable(ctx, in.TableID)
	if err != nil {
		return nil, err
	}

	if err := domain.CanTransitionTable(table.Status, domain.TableOccupied); err != nil {
		return nil, err
	}
	if in.CustomerCount < 1 {
		return nil, &domain.ValidationError{Field: "customerCount", Reason: "must be at least 1"}
	}
	if in.CustomerCount > table.Capacity {
		return nil, &domain.CapacityExceededError{Capacity: table.Capacity, Requested: in.CustomerCount}
	}

	waiterID := in.WaiterID
	if waiterID == nil && caller.IsWaiter() {
		waiterID = &caller.ID
	}
	if waiterID == nil {
		return nil, &domain.ValidationError{Field: "waiterId", Reason: "an assigned waiter is required"}
	}

	identification := strings.TrimSpace(in.Identification)
	if identification == "" {
		identification = fmt.Sprintf("Mesa %d", table.Number)
	}

	now := time.Now()
	table.Status = domain.TableOccupied
	table.CurrentCustomers = &in.CustomerCount
	table.Identification = &identification
	table.AssignedWaiterID = waiterID
	table.OpenedAt = &now
	table.ClosedAt = nil

	return s.Tables.Update(ctx, *table)
}

// Release closes the session and frees the table. Refused while unsettled
// orders remain.
func (s TableService) Release(ctx context.Context, tableID int64) (*domain.Table, error) {
	table, err := s.getTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table.Status != domain.TableOccupied {
		return nil, &domain.InvalidTransitionError{Entity: "table", From: string(table.Status), To: string(domain.TableAvailable)}
	}

	unsettled, err := s.Orders.ListUnsettledByTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if len(unsettled) > 0 {
		return nil, domain.ErrUnsettledOrders
	}

	now := time.Now()
	table.Status = domain.TableAvailable
	table.CurrentCustomers = nil
	table.Identification = nil
	table.AssignedWaiterID = nil
	table.ClosedAt = &now

	updated, err := s.Tables.Update(ctx, *table)
	if err != nil {
		return nil, err
	}

	s.Events.Publish(ctx, events.TableReleased, map[string]any{
		"table_id":     updated.ID,
		"table_number": updated.Number,
		"closed_at":    now,
	})
	return updated, nil
}

// ChangeStatusResult carries the count of still-active orders so the caller
// can ask for confirmation before leaving an occupied table.
type ChangeStatusResult struct {
	Table        *domain.Table
	ActiveOrders int
}

// ChangeStatus moves a table through the administrative graph. Moving into
// occupied must go through Open so the occupancy fields get set.
func (s TableService) ChangeStatus(ctx context.Context, tableID int64, newStatus domain.TableStatus) (*ChangeStatusResult, error) {
	table, err := s.getTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if newStatus == domain.TableOccupied {
		return nil, &domain.ValidationError{Field: "status", Reason: "open the table to occupy it"}
	}
	if err := domain.CanTransitionTable(table.Status, newStatus); err != nil {
		return nil, err
	}

	activeOrders := 0
	if table.Status == domain.TableOccupied {
		unsettled, err := s.Orders.ListUnsettledByTable(ctx, tableID)
		if err != nil {
			return nil, err
		}
		activeOrders = len(unsettled)

		table.CurrentCustomers = nil
		table.Identification = nil
		table.AssignedWaiterID = nil
		now := time.Now()
		table.ClosedAt = &now
	}

	table.Status = newStatus
	updated, err := s.Tables.Update(ctx, *table)
	if err != nil {
		return nil, err
	}
	return &ChangeStatusResult{Table: updated, ActiveOrders: activeOrders}, nil
}

func (s TableService) Create(ctx context.Context, number, capacity int) (*domain.Table, error) {
	if number < 1 {
		return nil, &domain.ValidationError{Field: "number", Reason: "must be at least 1"}
	}
	if capacity < 1 || capacity > 20 {
		return nil, &domain.ValidationError{Field: "capacity", Reason: "must be between 1 and 20"}
	}
	table, err := s.Tables.Create(ctx, number, capacity)
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, &domain.ValidationError{Field: "number", Reason: "already in use"}
		}
		return nil, err
	}
	return table, nil
}

func (s TableService) List(ctx context.Context) ([]domain.Table, error) {
	return s.Tables.List(ctx)
}

func (s TableService) Get(ctx context.Context, id int64) (*domain.Table, error) {
	return s.getTable(ctx, id)
}

// Delete removes a table. Occupied tables cannot be deleted; settled history
// keeps its own identification snapshot and survives.
func (s TableService) Delete(ctx context.Context, id int64) error {
	table, err := s.getTable(ctx, id)
	if err != nil {
		return err
	}
	if table.Status == domain.TableOccupied {
		return &domain.InvalidTransitionError{Entity: "table", From: string(domain.TableOccupied), To: "deleted"}
	}
	return s.Tables.Delete(ctx, id)
}

func (s TableService) getTable(ctx context.Context, id int64) (*domain.Table, error) {
	table, err := s.Tables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: "table", ID: id}
		}
		return nil, err
	}
	return table, nil
}
