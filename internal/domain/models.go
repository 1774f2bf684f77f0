package domain

import "time"

// Enumerations
const (
	RoleAdmin        UserRole = "admin"
	RoleReceptionist UserRole = "receptionist"
	RoleWaiter       UserRole = "waiter"

	TableAvailable   TableStatus = "available"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableMaintenance TableStatus = "maintenance"

	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"

	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"

	MethodDinheiro      PaymentMethodType = "dinheiro"
	MethodCartaoCredito PaymentMethodType = "cartao_credito"
	MethodCartaoDebito  PaymentMethodType = "cartao_debito"
	MethodPix           PaymentMethodType = "pix"
	MethodVale          PaymentMethodType = "vale"
)

type UserRole string
type TableStatus string
type OrderStatus string
type PaymentStatus string
type PaymentMethodType string

// ValidMethodType reports whether t is a recognized payment instrument.
func ValidMethodType(t PaymentMethodType) bool {
	switch t {
	case MethodDinheiro, MethodCartaoCredito, MethodCartaoDebito, MethodPix, MethodVale:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Name         string
	Email        string
	Role         UserRole
	PasswordHash *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

type Product struct {
	ID        int64
	Name      string
	Category  string
	Price     float64
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Table is a physical seating unit. CurrentCustomers, Identification and
// AssignedWaiterID are set if and only if Status is occupied.
type Table struct {
	ID               int64
	Number           int
	Capacity         int
	Status           TableStatus
	CurrentCustomers *int
	Identification   *string
	AssignedWaiterID *int64
	OpenedAt         *time.Time
	ClosedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// Order is one ticket of items placed against a table's current session.
// PaymentID is set once the order has been settled by a paid payment.
type Order struct {
	ID            int64
	TableID       int64
	WaiterID      int64
	Status        OrderStatus
	Items         []OrderItem
	TotalAmount   float64
	Observations  string
	EstimatedTime *int
	PaymentID     *int64
	DeliveredAt   *time.Time
	CancelReason  *string
	CancelledBy   *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderItem struct {
	ID           int64
	OrderID      int64
	ProductID    int64
	ProductName  string
	Quantity     int
	UnitPrice    float64
	TotalPrice   float64
	Observations string
}

// Payment settles one or more orders of a single table. TableID is a weak
// reference: the table row may be deleted later, TableIdentification keeps
// the history readable. Commission fields are snapshots of the config at
// settlement time.
type Payment struct {
	ID                   int64
	Code                 string
	TableID              *int64
	TableIdentification  string
	OrderIDs             []int64
	BaseAmount           float64
	CommissionEnabled    bool
	CommissionPercentage float64
	CommissionAmount     float64
	TotalAmount          float64
	PaidAmount           float64
	ChangeAmount         float64
	Methods              []PaymentMethod
	Status               PaymentStatus
	PaidAt               *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            *time.Time
}

// RemainingAmount is derived, never stored.
func (p Payment) RemainingAmount() float64 {
	if p.PaidAmount >= p.TotalAmount {
		return 0
	}
	return Round2(p.TotalAmount - p.PaidAmount)
}

type PaymentMethod struct {
	ID          int64
	PaymentID   int64
	Type        PaymentMethodType
	Amount      float64
	Description string
}

// CommissionConfig is the global waiter-commission toggle. Single row,
// created on first read.
type CommissionConfig struct {
	Enabled    bool
	Percentage float64
	UpdatedAt  time.Time
}
