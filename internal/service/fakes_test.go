package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"inventory/internal/model"
	"inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// store is the in-memory database shared by the fake repositories.
type store struct {
	products  map[uuid.UUID]model.Product
	orders    map[uuid.UUID]model.Order
	movements []model.StockMovement
	stockIns  []model.StockIn
	lockLog   []uuid.UUID
	seqLocks  []string
}

func newStore() *store {
	return &store{
		products: make(map[uuid.UUID]model.Product),
		orders:   make(map[uuid.UUID]model.Order),
	}
}

func (s *store) clone() *store {
	c := newStore()
	for id, p := range s.products {
		c.products[id] = p
	}
	for id, o := range s.orders {
		o.Items = append([]model.OrderItem(nil), o.Items...)
		c.orders[id] = o
	}
	c.movements = append([]model.StockMovement(nil), s.movements...)
	c.stockIns = append([]model.StockIn(nil), s.stockIns...)
	c.lockLog = append([]uuid.UUID(nil), s.lockLog...)
	c.seqLocks = append([]string(nil), s.seqLocks...)
	return c
}

func (s *store) restore(from *store) {
	*s = *from
}

type fakeTxKey struct{}

// fakeTxManager rolls the store back when the transaction function fails.
// failures are returned in turn by successive top-level transactions after
// their work ran, which mimics a commit aborted by the database.
type fakeTxManager struct {
	st       *store
	failures []error
	calls    int
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	m.calls++

	snapshot := m.st.clone()
	err := fn(context.WithValue(ctx, fakeTxKey{}, true))
	if err == nil && len(m.failures) > 0 {
		err = m.failures[0]
		m.failures = m.failures[1:]
	}
	if err != nil {
		m.st.restore(snapshot)
		return err
	}
	return nil
}

type fakeProductRepo struct {
	st *store
}

func (r *fakeProductRepo) Create(ctx context.Context, product *model.Product) error {
	if product.Status == model.ProductStatusActive {
		for _, p := range r.st.products {
			if p.SKU == product.SKU && p.IsActive() {
				return &pgconn.PgError{Code: "23505", ConstraintName: repository.ActiveSKUConstraint}
			}
		}
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.st.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) FindActiveBySKU(ctx context.Context, sku string) (*model.Product, error) {
	for _, p := range r.st.products {
		if p.SKU == sku && p.IsActive() {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	r.st.lockLog = append(r.st.lockLog, id)
	return r.FindByID(ctx, id)
}

func (r *fakeProductRepo) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.st.products {
		if p.IsActive() && (search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(search))) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeProductRepo) ListLowStock(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.st.products {
		if p.IsActive() && p.IsLowStock() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

func (r *fakeProductRepo) UpdateDetails(ctx context.Context, product *model.Product) error {
	for id, p := range r.st.products {
		if id != product.ID && p.SKU == product.SKU && p.IsActive() {
			return &pgconn.PgError{Code: "23505", ConstraintName: repository.ActiveSKUConstraint}
		}
	}
	current, ok := r.st.products[product.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	current.Name = product.Name
	current.SKU = product.SKU
	current.Category = product.Category
	current.Size = product.Size
	current.Color = product.Color
	current.Description = product.Description
	current.HPP = product.HPP
	current.SellingPrice = product.SellingPrice
	current.MinStock = product.MinStock
	current.UpdatedAt = product.UpdatedAt
	r.st.products[product.ID] = current
	return nil
}

func (r *fakeProductRepo) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	p := r.st.products[id]
	p.Stock = stock
	r.st.products[id] = p
	return nil
}

func (r *fakeProductRepo) UpdateHPP(ctx context.Context, id uuid.UUID, hpp decimal.Decimal) error {
	p := r.st.products[id]
	p.HPP = hpp
	r.st.products[id] = p
	return nil
}

func (r *fakeProductRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProductStatus) error {
	p := r.st.products[id]
	p.Status = status
	r.st.products[id] = p
	return nil
}

type fakeOrderRepo struct {
	st *store
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *model.Order) error {
	for _, o := range r.st.orders {
		if o.OrderNumber == order.OrderNumber {
			return &pgconn.PgError{Code: "23505", ConstraintName: repository.OrderNumberConstraint}
		}
	}
	o := *order
	o.Items = append([]model.OrderItem(nil), order.Items...)
	r.st.orders[order.ID] = o
	return nil
}

func (r *fakeOrderRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	o.Items = append([]model.OrderItem(nil), o.Items...)
	sort.SliceStable(o.Items, func(i, j int) bool { return o.Items[i].LineNo < o.Items[j].LineNo })
	return &o, nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.FindByIDWithItems(ctx, id)
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	o := r.st.orders[id]
	o.Status = status
	r.st.orders[id] = o
	return nil
}

func (r *fakeOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.st.orders, id)
	return nil
}

func (r *fakeOrderRepo) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.st.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.StartDate != nil && o.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && o.CreatedAt.After(*filter.EndDate) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r *fakeOrderRepo) ListCompleted(ctx context.Context, start, end time.Time) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.st.orders {
		if o.Status == model.OrderStatusCompleted && !o.CreatedAt.Before(start) && !o.CreatedAt.After(end) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeOrderRepo) LockSequence(ctx context.Context, prefix string) error {
	r.st.seqLocks = append(r.st.seqLocks, prefix)
	return nil
}

func (r *fakeOrderRepo) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	latest := ""
	for _, o := range r.st.orders {
		n := o.OrderNumber
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		if len(n) > len(latest) || (len(n) == len(latest) && n > latest) {
			latest = n
		}
	}
	return latest, nil
}

type fakeMovementRepo struct {
	st *store
}

func (r *fakeMovementRepo) Create(ctx context.Context, movement *model.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	r.st.movements = append(r.st.movements, *movement)
	return nil
}

func (r *fakeMovementRepo) List(ctx context.Context, filter model.MovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.st.movements {
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.StartDate != nil && m.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && m.CreatedAt.After(*filter.EndDate) {
			continue
		}
		out = append(out, m)
	}
	// Newest first; insertion order breaks ties.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r *fakeMovementRepo) ListByReference(ctx context.Context, refType model.ReferenceType, refID uuid.UUID) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.st.movements {
		if m.ReferenceType != nil && *m.ReferenceType == refType && m.ReferenceID != nil && *m.ReferenceID == refID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeStockInRepo struct {
	st *store
}

func (r *fakeStockInRepo) Create(ctx context.Context, stockIn *model.StockIn) error {
	if stockIn.CreatedAt.IsZero() {
		stockIn.CreatedAt = time.Now()
	}
	r.st.stockIns = append(r.st.stockIns, *stockIn)
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// fakeReportCache mirrors the Redis cache: entries live under a generation
// and Invalidate moves readers to the next one.
type fakeReportCache struct {
	reports       map[string]model.FinancialReport
	generation    int64
	invalidations int
	gets          int
}

func newFakeReportCache() *fakeReportCache {
	return &fakeReportCache{reports: make(map[string]model.FinancialReport)}
}

func cacheKey(generation int64, start, end time.Time) string {
	return fmt.Sprintf("%d|%s|%s", generation, start.UTC().Format(time.RFC3339Nano), end.UTC().Format(time.RFC3339Nano))
}

func (c *fakeReportCache) Get(ctx context.Context, start, end time.Time) (*model.FinancialReport, int64, bool, error) {
	c.gets++
	r, ok := c.reports[cacheKey(c.generation, start, end)]
	if !ok {
		return nil, c.generation, false, nil
	}
	return &r, c.generation, true, nil
}

func (c *fakeReportCache) Set(ctx context.Context, generation int64, start, end time.Time, report *model.FinancialReport) error {
	c.reports[cacheKey(generation, start, end)] = *report
	return nil
}

func (c *fakeReportCache) Invalidate(ctx context.Context) error {
	c.invalidations++
	c.generation++
	return nil
}

type fakePublisher struct {
	events []model.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event model.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) ofType(t model.EventType) []model.Event {
	var out []model.Event
	for _, e := range p.events {
		if e.Event == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	st        *store
	tx        *fakeTxManager
	products  *fakeProductRepo
	orders    *fakeOrderRepo
	movements *fakeMovementRepo
	stockIns  *fakeStockInRepo
	cache     *fakeReportCache
	events    *fakePublisher

	ledger     InventoryLedger
	sequence   OrderSequence
	orderSvc   OrderService
	reportSvc  ReportService
	stockSvc   StockService
	productSvc ProductService
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	st := newStore()
	env := &testEnv{
		st:        st,
		tx:        &fakeTxManager{st: st},
		products:  &fakeProductRepo{st: st},
		orders:    &fakeOrderRepo{st: st},
		movements: &fakeMovementRepo{st: st},
		stockIns:  &fakeStockInRepo{st: st},
		cache:     newFakeReportCache(),
		events:    &fakePublisher{},
	}
	env.ledger = NewInventoryLedger(env.products, env.movements)
	env.sequence = NewOrderSequence(env.orders)
	env.orderSvc = NewOrderService(env.orders, env.ledger, env.sequence, env.tx, env.cache, env.events)
	env.reportSvc = NewReportService(env.orders, env.cache)
	env.stockSvc = NewStockService(env.stockIns, env.movements, env.ledger, env.tx, env.events)
	env.productSvc = NewProductService(env.products, env.ledger, env.tx, env.events)
	return env
}

// addProduct seeds a product directly, bypassing the ledger.
func (e *testEnv) addProduct(name, sku string, stock int, price, hpp int64) model.Product {
	p := model.Product{
		ID:           uuid.New(),
		Name:         name,
		SKU:          sku,
		Size:         "M",
		Color:        "Black",
		HPP:          decimal.NewFromInt(hpp),
		SellingPrice: decimal.NewFromInt(price),
		Stock:        stock,
		MinStock:     model.DefaultMinStock,
		Status:       model.ProductStatusActive,
	}
	e.st.products[p.ID] = p
	return p
}

func (e *testEnv) product(id uuid.UUID) model.Product {
	return e.st.products[id]
}

func (e *testEnv) movementsFor(refType model.ReferenceType, refID uuid.UUID) []model.StockMovement {
	out, _ := e.movements.ListByReference(context.Background(), refType, refID)
	return out
}

func (e *testEnv) setClock(now time.Time) {
	e.orderSvc.(*orderService).now = func() time.Time { return now }
}

func itemReq(id uuid.UUID, qty int) OrderItemRequest {
	return OrderItemRequest{ProductID: id.String(), Quantity: qty}
}

func deadlock() error {
	return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
}

func decimalInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
