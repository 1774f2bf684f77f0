package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"comanda-backend/internal/domain"
	"comanda-backend/internal/events"
	"comanda-backend/internal/repository"

	"github.com/google/uuid"
)

// PaymentStore is the persistence surface PaymentService needs.
type PaymentStore interface {
	Create(ctx context.Context, in repository.CreatePaymentInput) (*domain.Payment, error)
	Finalize(ctx context.Context, id int64, methods []repository.CreatePaymentMethod, paidAmount, changeAmount float64, paidAt time.Time) (bool, error)
	CancelPending(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	FindPendingByTable(ctx context.Context, tableID int64) (*domain.Payment, error)
	List(ctx context.Context, limit int) ([]domain.Payment, error)
	ListByTable(ctx context.Context, tableID int64) ([]domain.Payment, error)
}

type PaymentOrderStore interface {
	ListUnsettledByTable(ctx context.Context, tableID int64) ([]domain.Order, error)
}

type PaymentTableStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Table, error)
}

type CommissionConfigStore interface {
	GetOrCreateDefault(ctx context.Context) (*domain.CommissionConfig, error)
}

// PaymentService reconciles a table's unsettled orders into a single
// payment, pending or paid.
type PaymentService struct {
	Payments   PaymentStore
	Orders     PaymentOrderStore
	Tables     PaymentTableStore
	Commission CommissionConfigStore
	Events     events.Publisher
	Logger     *slog.Logger
}

// BillSummary is the computed bill of a table's current session.
type BillSummary struct {
	TableID              int64
	OrderIDs             []int64
	OrderCount           int
	BaseAmount           float64
	CommissionEnabled    bool
	CommissionPercentage float64
	CommissionAmount     float64
	TotalDue             float64
	HasPendingPayment    bool
	CanSettleNow         bool
}

type PaymentMethodInput struct {
	Type        domain.PaymentMethodType
	Amount      float64
	Description string
}

// GetBillSummary recomputes the bill for a table from its unsettled orders
// and the live commission config.
func (s PaymentService) GetBillSummary(ctx context.Context, tableID int64) (*BillSummary, error) {
	if _, err := s.getTable(ctx, tableID); err != nil {
		return nil, err
	}
	return s.computeBill(ctx, tableID)
}

// CreatePayment validates the submitted instruments against the freshly
// recomputed bill and persists the settlement. With target status pending
// the orders stay open for a later FinalizePending; with paid they are
// linked and settled atomically.
func (s PaymentService) CreatePayment(ctx context.Context, tableID int64, methods []PaymentMethodInput, targetStatus domain.PaymentStatus) (*domain.Payment, error) {
	if targetStatus != domain.PaymentPending && targetStatus != domain.PaymentPaid {
		return nil, &domain.ValidationError{Field: "status", Reason: "must be pending or paid"}
	}

	table, err := s.getTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	bill, err := s.computeBill(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if bill.OrderCount == 0 {
		return nil, domain.ErrNoUnsettledOrders
	}
	if bill.HasPendingPayment {
		return nil, domain.ErrSettlementInFlight
	}

	paid, err := validateMethods(methods, bill.TotalDue)
	if err != nil {
		return nil, err
	}
	change := changeFor(paid, bill.TotalDue)

	identification := fmt.Sprintf("Mesa %d", table.Number)
	if table.Identification != nil && *table.Identification != "" {
		identification = *table.Identification
	}

	in := repository.CreatePaymentInput{
		Code:                 "PAG-" + uuid.NewString(),
		TableID:              &tableID,
		TableIdentification:  identification,
		OrderIDs:             bill.OrderIDs,
		BaseAmount:           bill.BaseAmount,
		CommissionEnabled:    bill.CommissionEnabled,
		CommissionPercentage: bill.CommissionPercentage,
		CommissionAmount:     bill.CommissionAmount,
		TotalAmount:          bill.TotalDue,
		PaidAmount:           paid,
		ChangeAmount:         change,
		Status:               targetStatus,
		Methods:              toCreateMethods(methods),
	}
	if targetStatus == domain.PaymentPaid {
		now := time.Now()
		in.PaidAt = &now
	}

	payment, err := s.Payments.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	eventName := events.PaymentPending
	if targetStatus == domain.PaymentPaid {
		eventName = events.PaymentCompleted
	}
	s.Events.Publish(ctx, eventName, paymentEvent(payment))
	return payment, nil
}

// FinalizePending settles a payment that was created as pending. The
// submitted instruments are validated against the stored total: orders must
// not change once a settlement is in flight, so the bill is not recomputed.
func (s PaymentService) FinalizePending(ctx context.Context, paymentID int64, methods []PaymentMethodInput) (*domain.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentPending {
		return nil, domain.ErrNotPending
	}

	paid, err := validateMethods(methods, payment.TotalAmount)
	if err != nil {
		return nil, err
	}
	change := changeFor(paid, payment.TotalAmount)

	ok, err := s.Payments.Finalize(ctx, paymentID, toCreateMethods(methods), paid, change, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotPending
	}

	payment, err = s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.PaymentCompleted, paymentEvent(payment))
	return payment, nil
}

// CancelPending abandons an in-flight settlement, freeing the table for a
// new one.
func (s PaymentService) CancelPending(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentPending {
		return nil, domain.ErrNotPending
	}
	ok, err := s.Payments.CancelPending(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotPending
	}
	return s.getPayment(ctx, paymentID)
}

func (s PaymentService) Get(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.getPayment(ctx, id)
}

func (s PaymentService) List(ctx context.Context, limit int) ([]domain.Payment, error) {
	return s.Payments.List(ctx, limit)
}

func (s PaymentService) ListByTable(ctx context.Context, tableID int64) ([]domain.Payment, error) {
	return s.Payments.ListByTable(ctx, tableID)
}

func (s PaymentService) computeBill(ctx context.Context, tableID int64) (*BillSummary, error) {
	orders, err := s.Orders.ListUnsettledByTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	base := 0.0
	orderIDs := make([]int64, 0, len(orders))
	for _, o := range orders {
		base += o.TotalAmount
		orderIDs = append(orderIDs, o.ID)
	}
	base = domain.Round2(base)

	cfg, err := s.Commission.GetOrCreateDefault(ctx)
	if err != nil {
		return nil, err
	}
	commission := CalculateCommission(base, *cfg)
	total := domain.Round2(base + commission)

	hasPending := false
	if _, err := s.Payments.FindPendingByTable(ctx, tableID); err == nil {
		hasPending = true
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	return &BillSummary{
		TableID:              tableID,
		OrderIDs:             orderIDs,
		OrderCount:           len(orders),
		BaseAmount:           base,
		CommissionEnabled:    cfg.Enabled,
		CommissionPercentage: cfg.Percentage,
		CommissionAmount:     commission,
		TotalDue:             total,
		HasPendingPayment:    hasPending,
		CanSettleNow:         total > 0 && !hasPending,
	}, nil
}

// validateMethods checks every instrument and that the sum lands within one
// cent of the amount due. Returns the rounded paid amount.
func validateMethods(methods []PaymentMethodInput, totalDue float64) (float64, error) {
	if len(methods) == 0 {
		return 0, &domain.InvalidPaymentMethodError{Type: "", Reason: "at least one payment method is required"}
	}
	paid := 0.0
	for _, m := range methods {
		if !domain.ValidMethodType(m.Type) {
			return 0, &domain.InvalidPaymentMethodError{Type: string(m.Type), Reason: "unrecognized type"}
		}
		if m.Amount <= 0 {
			return 0, &domain.InvalidPaymentMethodError{Type: string(m.Type), Reason: "amount must be positive"}
		}
		paid += m.Amount
	}
	paid = domain.Round2(paid)

	if !domain.WithinCent(paid, totalDue) {
		delta := domain.Round2(totalDue - paid)
		if delta < 0 {
			delta = -delta
		}
		return 0, &domain.AmountMismatchError{Expected: totalDue, Received: paid, Delta: delta}
	}
	return paid, nil
}

func changeFor(paid, totalDue float64) float64 {
	if paid <= totalDue {
		return 0
	}
	return domain.Round2(paid - totalDue)
}

func toCreateMethods(methods []PaymentMethodInput) []repository.CreatePaymentMethod {
	out := make([]repository.CreatePaymentMethod, 0, len(methods))
	for _, m := range methods {
		out = append(out, repository.CreatePaymentMethod{
			Type:        m.Type,
			Amount:      m.Amount,
			Description: m.Description,
		})
	}
	return out
}

func paymentEvent(p *domain.Payment) map[string]any {
	return map[string]any{
		"payment_id":    p.ID,
		"code":          p.Code,
		"table_id":      p.TableID,
		"total_amount":  p.TotalAmount,
		"change_amount": p.ChangeAmount,
		"status":        p.Status,
		"order_ids":     p.OrderIDs,
	}
}

func (s PaymentService) getTable(ctx context.Context, id int64) (*domain.Table, error) {
	table, err := s.Tables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: "table", ID: id}
		}
		return nil, err
	}
	return table, nil
}

func (s PaymentService) getPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	payment, err := s.Payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: "payment", ID: id}
		}
		return nil, err
	}
	return payment, nil
}
