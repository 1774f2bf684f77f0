package repository

import (
	"context"
	"errors"
	"time"

	"comanda-backend/internal/db"
	"comanda-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

type PaymentRepository struct {
	DB *db.Postgres
}

type CreatePaymentInput struct {
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
	Status               domain.PaymentStatus
	PaidAt               *time.Time
	Methods              []CreatePaymentMethod
}

type CreatePaymentMethod struct {
	Type        domain.PaymentMethodType
	Amount      float64
	Description string
}

const paymentColumns = `id, code, table_id, table_identification, base_amount,
	commission_enabled, commission_percentage, commission_amount,
	total_amount, paid_amount, change_amount, status, paid_at, created_at, updated_at`

// Create persists a payment with its methods and order references in one
// transaction. A paid payment also links its orders; the partial unique
// index on (table_id) WHERE status='pending' turns a concurrent pending
// insert into ErrSettlementInFlight.
func (r PaymentRepository) Create(ctx context.Context, in CreatePaymentInput) (*domain.Payment, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var p domain.Payment
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (code, table_id, table_identification, base_amount,
			commission_enabled, commission_percentage, commission_amount,
			total_amount, paid_amount, change_amount, status, paid_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now(), now())
		RETURNING `+paymentColumns+`
	`, in.Code, in.TableID, in.TableIdentification, in.BaseAmount,
		in.CommissionEnabled, in.CommissionPercentage, in.CommissionAmount,
		in.TotalAmount, in.PaidAmount, in.ChangeAmount, in.Status, in.PaidAt).
		Scan(paymentDest(&p)...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrSettlementInFlight
		}
		return nil, err
	}

	for _, m := range in.Methods {
		var pm domain.PaymentMethod
		err := tx.QueryRow(ctx, `
			INSERT INTO payment_methods (payment_id, type, amount, description)
			VALUES ($1,$2,$3,$4)
			RETURNING id, payment_id, type, amount, description
		`, p.ID, m.Type, m.Amount, m.Description).
			Scan(&pm.ID, &pm.PaymentID, &pm.Type, &pm.Amount, &pm.Description)
		if err != nil {
			return nil, err
		}
		p.Methods = append(p.Methods, pm)
	}

	for _, orderID := range in.OrderIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO payment_orders (payment_id, order_id) VALUES ($1,$2)
		`, p.ID, orderID); err != nil {
			return nil, err
		}
	}
	p.OrderIDs = in.OrderIDs

	if in.Status == domain.PaymentPaid {
		if err := linkOrders(ctx, tx, p.ID, in.OrderIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

// Finalize flips a pending payment to paid, replaces its recorded methods
// and links the referenced orders. Returns false when the payment was not
// pending anymore.
func (r PaymentRepository) Finalize(ctx context.Context, id int64, methods []CreatePaymentMethod, paidAmount, changeAmount float64, paidAt time.Time) (bool, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE payments
		SET status=$1, paid_amount=$2, change_amount=$3, paid_at=$4, updated_at=now()
		WHERE id=$5 AND status=$6 AND deleted_at IS NULL
	`, domain.PaymentPaid, paidAmount, changeAmount, paidAt, id, domain.PaymentPending)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM payment_methods WHERE payment_id=$1`, id); err != nil {
		return false, err
	}
	for _, m := range methods {
		if _, err := tx.Exec(ctx, `
			INSERT INTO payment_methods (payment_id, type, amount, description)
			VALUES ($1,$2,$3,$4)
		`, id, m.Type, m.Amount, m.Description); err != nil {
			return false, err
		}
	}

	orderIDs, err := orderIDsOf(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if err := linkOrders(ctx, tx, id, orderIDs); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// CancelPending cancels a payment still in pending status.
func (r PaymentRepository) CancelPending(ctx context.Context, id int64) (bool, error) {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE payments
		SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3 AND deleted_at IS NULL
	`, domain.PaymentCancelled, id, domain.PaymentPending)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id=$1 AND deleted_at IS NULL
	`, id)

	var p domain.Payment
	if err := row.Scan(paymentDest(&p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.attachDetails(ctx, []*domain.Payment{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindPendingByTable returns the single in-flight settlement of a table, or
// ErrNotFound.
func (r PaymentRepository) FindPendingByTable(ctx context.Context, tableID int64) (*domain.Payment, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE table_id=$1 AND status=$2 AND deleted_at IS NULL
	`, tableID, domain.PaymentPending)

	var p domain.Payment
	if err := row.Scan(paymentDest(&p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.attachDetails(ctx, []*domain.Payment{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r PaymentRepository) List(ctx context.Context, limit int) ([]domain.Payment, error) {
	return r.listWhere(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
}

func (r PaymentRepository) ListByTable(ctx context.Context, tableID int64) ([]domain.Payment, error) {
	return r.listWhere(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE table_id=$1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, tableID)
}

func (r PaymentRepository) listWhere(ctx context.Context, sql string, args ...any) ([]domain.Payment, error) {
	rows, err := r.DB.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(paymentDest(&p)...); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*domain.Payment, 0, len(payments))
	for i := range payments {
		refs = append(refs, &payments[i])
	}
	if err := r.attachDetails(ctx, refs); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r PaymentRepository) attachDetails(ctx context.Context, payments []*domain.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(payments))
	byID := make(map[int64]*domain.Payment, len(payments))
	for _, p := range payments {
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, payment_id, type, amount, description
		FROM payment_methods
		WHERE payment_id = ANY($1)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var m domain.PaymentMethod
		if err := rows.Scan(&m.ID, &m.PaymentID, &m.Type, &m.Amount, &m.Description); err != nil {
			return err
		}
		if p, ok := byID[m.PaymentID]; ok {
			p.Methods = append(p.Methods, m)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	orderRows, err := r.DB.Pool.Query(ctx, `
		SELECT payment_id, order_id
		FROM payment_orders
		WHERE payment_id = ANY($1)
		ORDER BY order_id ASC
	`, ids)
	if err != nil {
		return err
	}
	defer orderRows.Close()
	for orderRows.Next() {
		var paymentID, orderID int64
		if err := orderRows.Scan(&paymentID, &orderID); err != nil {
			return err
		}
		if p, ok := byID[paymentID]; ok {
			p.OrderIDs = append(p.OrderIDs, orderID)
		}
	}
	return orderRows.Err()
}

func linkOrders(ctx context.Context, tx pgx.Tx, paymentID int64, orderIDs []int64) error {
	if len(orderIDs) == 0 {
		return nil
	}
	ct, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_id=$1, updated_at=now()
		WHERE id = ANY($2) AND payment_id IS NULL
	`, paymentID, orderIDs)
	if err != nil {
		return err
	}
	// Someone settled one of these orders in between.
	if ct.RowsAffected() != int64(len(orderIDs)) {
		return domain.ErrAlreadySettled
	}
	return nil
}

func orderIDsOf(ctx context.Context, tx pgx.Tx, paymentID int64) ([]int64, error) {
	rows, err := tx.Query(ctx, `SELECT order_id FROM payment_orders WHERE payment_id=$1`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func paymentDest(p *domain.Payment) []any {
	return []any{
		&p.ID, &p.Code, &p.TableID, &p.TableIdentification, &p.BaseAmount,
		&p.CommissionEnabled, &p.CommissionPercentage, &p.CommissionAmount,
		&p.TotalAmount, &p.PaidAmount, &p.ChangeAmount, &p.Status, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
	}
}
