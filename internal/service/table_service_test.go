package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"comanda-backend/internal/domain"
)

func newTableService(tables *fakeTables, orders *fakeOrders) (TableService, *recordedEvents) {
	ev := &recordedEvents{}
	return TableService{
		Tables: tables,
		Orders: orders,
		Events: ev,
		Logger: slog.Default(),
	}, ev
}

func TestOpenTable(t *testing.T) {
	tables := newFakeTables()
	seat := tables.add(domain.Table{Number: 5, Capacity: 4, Status: domain.TableAvailable})
	svc, _ := newTableService(tables, newFakeOrders())

	got, err := svc.Open(context.Background(), Caller{ID: 7, Role: domain.RoleWaiter}, OpenTableInput{
		TableID:        seat.ID,
		CustomerCount:  3,
		Identification: "Família Souza",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got.Status != domain.TableOccupied {
		t.Fatalf("status=%q, want occupied", got.Status)
	}
	if got.CurrentCustomers == nil || *got.CurrentCustomers != 3 {
		t.Fatalf("currentCustomers=%v, want 3", got.CurrentCustomers)
	}
	if got.AssignedWaiterID == nil || *got.AssignedWaiterID != 7 {
		t.Fatalf("assignedWaiter=%v, want caller", got.AssignedWaiterID)
	}
	if got.OpenedAt == nil || got.ClosedAt != nil {
		t.Fatalf("openedAt=%v closedAt=%v, want stamped/cleared", got.OpenedAt, got.ClosedAt)
	}

	// opening an occupied table fails
	var transition *domain.InvalidTransitionError
	_, err = svc.Open(context.Background(), Caller{ID: 7, Role: domain.RoleWaiter}, OpenTableInput{TableID: seat.ID, CustomerCount: 2})
	if !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestOpenTableCapacity(t *testing.T) {
	tables := newFakeTables()
	seat := tables.add(domain.Table{Number: 1, Capacity: 4, Status: domain.TableAvailable})
	svc, _ := newTableService(tables, newFakeOrders())

	var capErr *domain.CapacityExceededError
	_, err := svc.Open(context.Background(), Caller{ID: 7, Role: domain.RoleWaiter}, OpenTableInput{TableID: seat.ID, CustomerCount: 5})
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityExceededError, got %v", err)
	}
	if capErr.Capacity != 4 || capErr.Requested != 5 {
		t.Fatalf("capacity error detail %+v", capErr)
	}
}

func TestOpenTableRequiresWaiter(t *testing.T) {
	tables := newFakeTables()
	seat := tables.add(domain.Table{Number: 1, Capacity: 4, Status: domain.TableAvailable})
	svc, _ := newTableService(tables, newFakeOrders())

	var validation *domain.ValidationError
	_, err := svc.Open(context.Background(), Caller{ID: 2, Role: domain.RoleReceptionist}, OpenTableInput{TableID: seat.ID, CustomerCount: 2})
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError without waiter, got %v", err)
	}

	// receptionists can open with an explicit waiter
	if _, err := svc.Open(context.Background(), Caller{ID: 2, Role: domain.RoleReceptionist}, OpenTableInput{
		TableID: seat.ID, CustomerCount: 2, WaiterID: int64Ptr(9),
	}); err != nil {
		t.Fatalf("open with explicit waiter: %v", err)
	}
}

func TestReleaseTable(t *testing.T) {
	tables := newFakeTables()
	orders := newFakeOrders()
	customers := 2
	ident := "Mesa 3"
	waiter := int64(7)
	seat := tables.add(domain.Table{
		Number: 3, Capacity: 4, Status: domain.TableOccupied,
		CurrentCustomers: &customers, Identification: &ident, AssignedWaiterID: &waiter,
	})
	svc, ev := newTableService(tables, orders)

	// unsettled order blocks release
	orders.add(domain.Order{TableID: seat.ID, WaiterID: waiter, Status: domain.OrderDelivered, TotalAmount: 30})
	if _, err := svc.Release(context.Background(), seat.ID); !errors.Is(err, domain.ErrUnsettledOrders) {
		t.Fatalf("expected ErrUnsettledOrders, got %v", err)
	}

	// settle it, then release succeeds and clears occupancy
	orders.link(1, []int64{1})
	got, err := svc.Release(context.Background(), seat.ID)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if got.Status != domain.TableAvailable {
		t.Fatalf("status=%q, want available", got.Status)
	}
	if got.CurrentCustomers != nil || got.Identification != nil || got.AssignedWaiterID != nil {
		t.Fatalf("occupancy fields not cleared: %+v", got)
	}
	if got.ClosedAt == nil {
		t.Fatal("closedAt not stamped")
	}
	if !ev.has("table.released") {
		t.Fatal("table.released not published")
	}
}

func TestChangeStatus(t *testing.T) {
	tables := newFakeTables()
	orders := newFakeOrders()
	svc, _ := newTableService(tables, orders)

	seat := tables.add(domain.Table{Number: 2, Capacity: 4, Status: domain.TableAvailable})

	res, err := svc.ChangeStatus(context.Background(), seat.ID, domain.TableMaintenance)
	if err != nil {
		t.Fatalf("to maintenance: %v", err)
	}
	if res.Table.Status != domain.TableMaintenance {
		t.Fatalf("status=%q, want maintenance", res.Table.Status)
	}

	// maintenance -> reserved is not in the graph
	var transition *domain.InvalidTransitionError
	if _, err := svc.ChangeStatus(context.Background(), seat.ID, domain.TableReserved); !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}

	// occupied must go through Open
	var validation *domain.ValidationError
	if _, err := svc.ChangeStatus(context.Background(), seat.ID, domain.TableOccupied); !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for occupy, got %v", err)
	}
}

func TestChangeStatusLeavingOccupiedReportsActiveOrders(t *testing.T) {
	tables := newFakeTables()
	orders := newFakeOrders()
	customers := 2
	waiter := int64(7)
	seat := tables.add(domain.Table{
		Number: 4, Capacity: 6, Status: domain.TableOccupied,
		CurrentCustomers: &customers, AssignedWaiterID: &waiter,
	})
	orders.add(domain.Order{TableID: seat.ID, WaiterID: waiter, Status: domain.OrderPreparing, TotalAmount: 12})
	svc, _ := newTableService(tables, orders)

	res, err := svc.ChangeStatus(context.Background(), seat.ID, domain.TableMaintenance)
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if res.ActiveOrders != 1 {
		t.Fatalf("activeOrders=%d, want 1", res.ActiveOrders)
	}
	if res.Table.CurrentCustomers != nil || res.Table.AssignedWaiterID != nil {
		t.Fatal("occupancy fields not cleared on leaving occupied")
	}
}

func TestChangeStatusOccupiedToReserved(t *testing.T) {
	tables := newFakeTables()
	customers := 4
	ident := "Aniversário Dona Zilda"
	waiter := int64(7)
	seat := tables.add(domain.Table{
		Number: 6, Capacity: 8, Status: domain.TableOccupied,
		CurrentCustomers: &customers, Identification: &ident, AssignedWaiterID: &waiter,
	})
	svc, _ := newTableService(tables, newFakeOrders())

	// holding the table for the next party straight from occupied
	res, err := svc.ChangeStatus(context.Background(), seat.ID, domain.TableReserved)
	if err != nil {
		t.Fatalf("to reserved: %v", err)
	}
	if res.Table.Status != domain.TableReserved {
		t.Fatalf("status=%q, want reserved", res.Table.Status)
	}
	if res.Table.CurrentCustomers != nil || res.Table.Identification != nil || res.Table.AssignedWaiterID != nil {
		t.Fatalf("occupancy fields not cleared: %+v", res.Table)
	}
	if res.Table.ClosedAt == nil {
		t.Fatal("closedAt not stamped on leaving occupied")
	}
}

func TestCreateTableValidation(t *testing.T) {
	svc, _ := newTableService(newFakeTables(), newFakeOrders())

	var validation *domain.ValidationError
	if _, err := svc.Create(context.Background(), 0, 4); !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for number, got %v", err)
	}
	if _, err := svc.Create(context.Background(), 1, 21); !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for capacity, got %v", err)
	}
	if _, err := svc.Create(context.Background(), 1, 4); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestDeleteOccupiedTable(t *testing.T) {
	tables := newFakeTables()
	customers := 1
	seat := tables.add(domain.Table{Number: 9, Capacity: 2, Status: domain.TableOccupied, CurrentCustomers: &customers})
	svc, _ := newTableService(tables, newFakeOrders())

	var transition *domain.InvalidTransitionError
	if err := svc.Delete(context.Background(), seat.ID); !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}
