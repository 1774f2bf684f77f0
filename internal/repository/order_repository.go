package repository

import (
	"context"
	"errors"
	"time"

	"comanda-backend/internal/db"
	"comanda-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type OrderRepository struct {
	DB *db.Postgres
}

type CreateOrderInput struct {
	TableID       int64
	WaiterID      int64
	Observations  string
	EstimatedTime *int
	TotalAmount   float64
	Items         []CreateOrderItem
}

type CreateOrderItem struct {
	ProductID    int64
	ProductName  string
	Quantity     int
	UnitPrice    float64
	TotalPrice   float64
	Observations string
}

const orderColumns = `id, table_id, waiter_id, status, total_amount, observations, estimated_time,
	payment_id, delivered_at, cancel_reason, cancelled_by, created_at, updated_at`

func (r OrderRepository) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var o domain.Order
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (table_id, waiter_id, status, total_amount, observations, estimated_time, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now(), now())
		RETURNING `+orderColumns+`
	`, in.TableID, in.WaiterID, domain.OrderPreparing, in.TotalAmount, in.Observations, in.EstimatedTime).
		Scan(orderDest(&o)...)
	if err != nil {
		return nil, err
	}

	for _, item := range in.Items {
		var it domain.OrderItem
		err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price, observations)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id, order_id, product_id, product_name, quantity, unit_price, total_price, observations
		`, o.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice, item.Observations).
			Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.Observations)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id=$1
	`, id)

	var o domain.Order
	if err := row.Scan(orderDest(&o)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.attachItems(ctx, []*domain.Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r OrderRepository) ListByTable(ctx context.Context, tableID int64) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE table_id=$1
		ORDER BY created_at DESC
	`, tableID)
}

func (r OrderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status=$1
		ORDER BY created_at ASC
	`, status)
}

// ListUnsettledByTable returns the table's not-yet-settled orders: anything
// still preparing, ready or delivered and not linked to a payment.
func (r OrderRepository) ListUnsettledByTable(ctx context.Context, tableID int64) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE table_id=$1
		  AND status IN ($2,$3,$4)
		  AND payment_id IS NULL
		ORDER BY created_at ASC
	`, tableID, domain.OrderPreparing, domain.OrderReady, domain.OrderDelivered)
}

// UpdateStatus moves an order from one status to another with a
// compare-and-swap on the current status. Returns false when another caller
// won the race.
func (r OrderRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus, deliveredAt *time.Time) (bool, error) {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE orders
		SET status=$1, delivered_at=COALESCE($2, delivered_at), updated_at=now()
		WHERE id=$3 AND status=$4
	`, to, deliveredAt, id, from)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// Cancel marks the order cancelled, guarded on its current status and on not
// being linked to a payment.
func (r OrderRepository) Cancel(ctx context.Context, id int64, from domain.OrderStatus, reason string, cancelledBy int64) (bool, error) {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE orders
		SET status=$1, cancel_reason=$2, cancelled_by=$3, updated_at=now()
		WHERE id=$4 AND status=$5 AND payment_id IS NULL
	`, domain.OrderCancelled, reason, cancelledBy, id, from)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// IsReferencedBySettlement reports whether any non-cancelled payment claims
// this order, including pending ones that have not linked payment_id yet.
func (r OrderRepository) IsReferencedBySettlement(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM payment_orders po
			JOIN payments p ON p.id = po.payment_id
			WHERE po.order_id=$1 AND p.status <> $2 AND p.deleted_at IS NULL
		)
	`, orderID, domain.PaymentCancelled).Scan(&exists)
	return exists, err
}

func (r OrderRepository) list(ctx context.Context, sql string, args ...any) ([]domain.Order, error) {
	rows, err := r.DB.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var refs []*domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(orderDest(&o)...); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		refs = append(refs, &orders[i])
	}
	if err := r.attachItems(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r OrderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*domain.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price, observations
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.Observations); err != nil {
			return err
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func orderDest(o *domain.Order) []any {
	return []any{
		&o.ID, &o.TableID, &o.WaiterID, &o.Status, &o.TotalAmount, &o.Observations, &o.EstimatedTime,
		&o.PaymentID, &o.DeliveredAt, &o.CancelReason, &o.CancelledBy, &o.CreatedAt, &o.UpdatedAt,
	}
}
