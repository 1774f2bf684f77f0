package domain

var tableTransitions = map[TableStatus][]TableStatus{
	TableAvailable: {TableOccupied, TableReserved, TableMaintenance},
	// occupied -> reserved holds the table for the next party; occupancy
	// fields are cleared on the way out like any exit from occupied.
	TableOccupied:    {TableAvailable, TableReserved, TableMaintenance},
	TableReserved:    {TableAvailable, TableOccupied, TableMaintenance},
	TableMaintenance: {TableAvailable},
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPreparing: {OrderReady, OrderCancelled},
	// ready -> preparing is the kitchen-mistake correction.
	OrderReady: {OrderDelivered, OrderCancelled, OrderPreparing},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentCancelled},
}

// CanTransitionTable checks the table status graph.
func CanTransitionTable(from, to TableStatus) error {
	for _, s := range tableTransitions[from] {
		if s == to {
			return nil
		}
	}
	return &InvalidTransitionError{Entity: "table", From: string(from), To: string(to)}
}

// CanTransitionOrder checks the order status graph. Delivered and cancelled
// are terminal regardless of caller role.
func CanTransitionOrder(from, to OrderStatus) error {
	if from == OrderDelivered || from == OrderCancelled {
		return &TerminalStateError{Entity: "order", Status: string(from)}
	}
	for _, s := range orderTransitions[from] {
		if s == to {
			return nil
		}
	}
	return &InvalidTransitionError{Entity: "order", From: string(from), To: string(to)}
}

// CanTransitionPayment checks the payment status graph. Paid and cancelled
// are terminal.
func CanTransitionPayment(from, to PaymentStatus) error {
	if from == PaymentPaid || from == PaymentCancelled {
		return &TerminalStateError{Entity: "payment", Status: string(from)}
	}
	for _, s := range paymentTransitions[from] {
		if s == to {
			return nil
		}
	}
	return &InvalidTransitionError{Entity: "payment", From: string(from), To: string(to)}
}

// AllowOrderTransition applies the role rules on top of the status graph:
// waiters act only on their own orders and may not run the ready->preparing
// correction. Roles outside the known set are refused outright.
func AllowOrderTransition(role UserRole, callerID int64, order *Order, to OrderStatus) error {
	switch role {
	case RoleAdmin, RoleReceptionist:
		return nil
	case RoleWaiter:
		if order.WaiterID != callerID {
			return &PermissionError{Reason: "waiters may only update their own orders"}
		}
		if order.Status == OrderReady && to == OrderPreparing {
			return &PermissionError{Reason: "only receptionists may send a ready order back to the kitchen"}
		}
		return nil
	default:
		return &PermissionError{Reason: "unrecognized role"}
	}
}
