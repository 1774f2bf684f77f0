package service

import (
	"context"
	"sync"
	"time"

	"comanda-backend/internal/domain"
	"comanda-backend/internal/repository"
)

type fakeTables struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Table
}

func newFakeTables() *fakeTables {
	return &fakeTables{rows: make(map[int64]domain.Table)}
}

func (f *fakeTables) add(t domain.Table) domain.Table {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t.ID = f.nextID
	f.rows[t.ID] = t
	return t
}

func (f *fakeTables) Create(_ context.Context, number, capacity int) (*domain.Table, error) {
	t := f.add(domain.Table{Number: number, Capacity: capacity, Status: domain.TableAvailable})
	return &t, nil
}

func (f *fakeTables) List(context.Context) ([]domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Table
	for _, t := range f.rows {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTables) GetByID(_ context.Context, id int64) (*domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := t
	return &copy, nil
}

func (f *fakeTables) Update(_ context.Context, t domain.Table) (*domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[t.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	f.rows[t.ID] = t
	copy := t
	return &copy, nil
}

func (f *fakeTables) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeProducts struct {
	rows map[int64]domain.Product
}

func (f *fakeProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := p
	return &copy, nil
}

type fakeOrders struct {
	mu         sync.Mutex
	nextID     int64
	rows       map[int64]domain.Order
	referenced map[int64]bool
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{rows: make(map[int64]domain.Order), referenced: make(map[int64]bool)}
}

func (f *fakeOrders) add(o domain.Order) domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	o.ID = f.nextID
	f.rows[o.ID] = o
	return o
}

func (f *fakeOrders) Create(_ context.Context, in repository.CreateOrderInput) (*domain.Order, error) {
	o := domain.Order{
		TableID:       in.TableID,
		WaiterID:      in.WaiterID,
		Status:        domain.OrderPreparing,
		TotalAmount:   in.TotalAmount,
		Observations:  in.Observations,
		EstimatedTime: in.EstimatedTime,
		CreatedAt:     time.Now(),
	}
	for i, item := range in.Items {
		o.Items = append(o.Items, domain.OrderItem{
			ID:           int64(i + 1),
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			TotalPrice:   item.TotalPrice,
			Observations: item.Observations,
		})
	}
	created := f.add(o)
	return &created, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := o
	return &copy, nil
}

func (f *fakeOrders) ListByTable(_ context.Context, tableID int64) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.rows {
		if o.TableID == tableID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) ListByStatus(_ context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.rows {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) ListUnsettledByTable(_ context.Context, tableID int64) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.rows {
		if o.TableID != tableID || o.PaymentID != nil {
			continue
		}
		switch o.Status {
		case domain.OrderPreparing, domain.OrderReady, domain.OrderDelivered:
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id int64, from, to domain.OrderStatus, deliveredAt *time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.rows[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if deliveredAt != nil {
		o.DeliveredAt = deliveredAt
	}
	f.rows[id] = o
	return true, nil
}

func (f *fakeOrders) Cancel(_ context.Context, id int64, from domain.OrderStatus, reason string, cancelledBy int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.rows[id]
	if !ok || o.Status != from || o.PaymentID != nil {
		return false, nil
	}
	o.Status = domain.OrderCancelled
	o.CancelReason = &reason
	o.CancelledBy = &cancelledBy
	f.rows[id] = o
	return true, nil
}

func (f *fakeOrders) IsReferencedBySettlement(_ context.Context, orderID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.referenced[orderID], nil
}

func (f *fakeOrders) link(paymentID int64, orderIDs []int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range orderIDs {
		o := f.rows[id]
		pid := paymentID
		o.PaymentID = &pid
		f.rows[id] = o
	}
}

type fakePayments struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Payment
	orders *fakeOrders
}

func newFakePayments(orders *fakeOrders) *fakePayments {
	return &fakePayments{rows: make(map[int64]domain.Payment), orders: orders}
}

func (f *fakePayments) Create(_ context.Context, in repository.CreatePaymentInput) (*domain.Payment, error) {
	f.mu.Lock()
	if in.Status == domain.PaymentPending && in.TableID != nil {
		for _, p := range f.rows {
			if p.TableID != nil && *p.TableID == *in.TableID && p.Status == domain.PaymentPending {
				f.mu.Unlock()
				return nil, domain.ErrSettlementInFlight
			}
		}
	}
	f.nextID++
	p := domain.Payment{
		ID:                   f.nextID,
		Code:                 in.Code,
		TableID:              in.TableID,
		TableIdentification:  in.TableIdentification,
		OrderIDs:             in.OrderIDs,
		BaseAmount:           in.BaseAmount,
		CommissionEnabled:    in.CommissionEnabled,
		CommissionPercentage: in.CommissionPercentage,
		CommissionAmount:     in.CommissionAmount,
		TotalAmount:          in.TotalAmount,
		PaidAmount:           in.PaidAmount,
		ChangeAmount:         in.ChangeAmount,
		Status:               in.Status,
		PaidAt:               in.PaidAt,
		CreatedAt:            time.Now(),
	}
	for i, m := range in.Methods {
		p.Methods = append(p.Methods, domain.PaymentMethod{
			ID:          int64(i + 1),
			PaymentID:   p.ID,
			Type:        m.Type,
			Amount:      m.Amount,
			Description: m.Description,
		})
	}
	f.rows[p.ID] = p
	f.mu.Unlock()

	if in.Status == domain.PaymentPaid && f.orders != nil {
		f.orders.link(p.ID, in.OrderIDs)
	}
	return &p, nil
}

func (f *fakePayments) Finalize(_ context.Context, id int64, methods []repository.CreatePaymentMethod, paidAmount, changeAmount float64, paidAt time.Time) (bool, error) {
	f.mu.Lock()
	p, ok := f.rows[id]
	if !ok || p.Status != domain.PaymentPending {
		f.mu.Unlock()
		return false, nil
	}
	p.Status = domain.PaymentPaid
	p.PaidAmount = paidAmount
	p.ChangeAmount = changeAmount
	p.PaidAt = &paidAt
	p.Methods = nil
	for i, m := range methods {
		p.Methods = append(p.Methods, domain.PaymentMethod{
			ID:        int64(i + 1),
			PaymentID: id,
			Type:      m.Type,
			Amount:    m.Amount,
		})
	}
	f.rows[id] = p
	f.mu.Unlock()

	if f.orders != nil {
		f.orders.link(id, p.OrderIDs)
	}
	return true, nil
}

func (f *fakePayments) CancelPending(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok || p.Status != domain.PaymentPending {
		return false, nil
	}
	p.Status = domain.PaymentCancelled
	f.rows[id] = p
	return true, nil
}

func (f *fakePayments) GetByID(_ context.Context, id int64) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := p
	return &copy, nil
}

func (f *fakePayments) FindPendingByTable(_ context.Context, tableID int64) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.TableID != nil && *p.TableID == tableID && p.Status == domain.PaymentPending {
			copy := p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePayments) List(_ context.Context, limit int) ([]domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Payment
	for _, p := range f.rows {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePayments) ListByTable(_ context.Context, tableID int64) ([]domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Payment
	for _, p := range f.rows {
		if p.TableID != nil && *p.TableID == tableID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeCommission struct {
	cfg domain.CommissionConfig
}

func (f *fakeCommission) GetOrCreateDefault(context.Context) (*domain.CommissionConfig, error) {
	copy := f.cfg
	return &copy, nil
}

type recordedEvents struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordedEvents) Publish(_ context.Context, routingKey string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, routingKey)
}

func (r *recordedEvents) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k == key {
			return true
		}
	}
	return false
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
