package checkout

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neumaticos/tirestore/internal/cart"
	"github.com/neumaticos/tirestore/internal/orders"
	"github.com/neumaticos/tirestore/pkg/db"
	"github.com/neumaticos/tirestore/pkg/db/dbtest"
	"github.com/neumaticos/tirestore/pkg/db/models"
	"github.com/neumaticos/tirestore/pkg/enums"
	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/metrics"
	"github.com/neumaticos/tirestore/pkg/types"
)

type memSnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memSnapshots) Load(_ context.Context, owner string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[owner]
	if !ok {
		return nil, cart.ErrSnapshotNotFound
	}
	return raw, nil
}

func (m *memSnapshots) Save(_ context.Context, owner string, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[owner] = raw
	return nil
}

type catalogStub map[uuid.UUID]models.Product

func (c catalogStub) FetchByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := c[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

type failingSubmitter struct {
	err error
}

func (f failingSubmitter) Submit(context.Context, orders.Draft) (uuid.UUID, error) {
	return uuid.Nil, f.err
}

// busySubmitter lets the shopper touch the cart while the order is stored.
type busySubmitter struct {
	next   orders.Service
	during func()
}

func (b busySubmitter) Submit(ctx context.Context, draft orders.Draft) (uuid.UUID, error) {
	b.during()
	return b.next.Submit(ctx, draft)
}

type fixture struct {
	svc      *service
	carts    cart.Service
	orders   orders.Service
	products catalogStub
	reg      *prometheus.Registry
	tire     uuid.UUID
	rim      uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	reg := prometheus.NewRegistry()
	m := metrics.NewCartMetrics(reg)

	registry, err := cart.NewRegistry(&memSnapshots{data: map[string][]byte{}}, 0, logg, m)
	require.NoError(t, err)

	tire, rim := uuid.New(), uuid.New()
	products := catalogStub{
		tire: {ID: tire, Name: "Bridgestone Turanza", Price: decimal.NewFromInt(100), Image: "https://img/turanza.jpg"},
		rim:  {ID: rim, Name: "Michelin Primacy", Price: decimal.NewFromInt(50)},
	}
	carts, err := cart.NewService(registry, products)
	require.NoError(t, err)

	conn := dbtest.Open(t)
	orderSvc, err := orders.NewService(orders.NewRepository(conn), db.NewFromConn(conn), logg)
	require.NoError(t, err)

	svc, err := NewService(carts, orderSvc, logg, m)
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.UnixMilli(1767225600123) }

	return &fixture{svc: impl, carts: carts, orders: orderSvc, products: products, reg: reg, tire: tire, rim: rim}
}

func (f *fixture) checkoutCount(t *testing.T, outcome string) float64 {
	t.Helper()
	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "checkout_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func shipping() types.ShippingAddress {
	return types.ShippingAddress{
		Name:    "Ana Rojas",
		Email:   "ana@example.com",
		Phone:   "+56911112222",
		Address: "Av. Siempre Viva 742",
		Region:  "Metropolitana",
	}
}

func TestExecuteSubmitsOrderAndClearsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	buyer := Identity{UserID: uuid.New(), Email: "ana@example.com", Name: "Ana Rojas"}
	owner := buyer.UserID.String()

	_, err := f.carts.Add(ctx, owner, f.tire, 3)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, owner, f.rim, 4)
	require.NoError(t, err)

	res, err := f.svc.Execute(ctx, buyer, Input{ShippingAddress: shipping()})
	require.NoError(t, err)
	assert.Equal(t, "TBK_1767225600123", res.TransactionID)
	assert.Equal(t, enums.PaymentMethodWebpay, res.PaymentMethod)
	assert.Equal(t, 7, res.ItemCount)
	assert.True(t, decimal.NewFromInt(500).Equal(res.Total))

	state, err := f.carts.Get(ctx, owner)
	require.NoError(t, err)
	assert.True(t, state.IsEmpty())

	order, err := f.orders.GetByID(ctx, orders.Actor{UserID: buyer.UserID}, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPendiente, order.Status)
	assert.Equal(t, "TBK_1767225600123", order.TransactionID)
	assert.Equal(t, "ana@example.com", order.UserEmail)
	require.Len(t, order.Items, 2)
	assert.Equal(t, f.tire.String(), order.Items[0].ProductID)
	assert.Equal(t, "https://img/turanza.jpg", order.Items[0].Image)
	assert.Equal(t, 4, order.Items[1].Quantity)
	assert.True(t, decimal.NewFromInt(500).Equal(order.Total))

	assert.Equal(t, float64(1), f.checkoutCount(t, metrics.CheckoutOutcomeSubmitted))
}

func TestExecuteHonorsPaymentMethodAndPrefillsIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	buyer := Identity{UserID: uuid.New(), Email: "luis@example.com", Name: "Luis Soto"}
	_, err := f.carts.Add(ctx, buyer.UserID.String(), f.rim, 1)
	require.NoError(t, err)

	addr := shipping()
	addr.Name = ""
	addr.Email = ""
	res, err := f.svc.Execute(ctx, buyer, Input{ShippingAddress: addr, PaymentMethod: enums.PaymentMethodTransferencia})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentMethodTransferencia, res.PaymentMethod)

	order, err := f.orders.GetByID(ctx, orders.Actor{UserID: buyer.UserID}, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "Luis Soto", order.ShippingAddress.Name)
	assert.Equal(t, "luis@example.com", order.ShippingAddress.Email)
}

func TestExecuteRejectsEmptyCart(t *testing.T) {
	f := newFixture(t)
	buyer := Identity{UserID: uuid.New(), Email: "ana@example.com"}

	_, err := f.svc.Execute(context.Background(), buyer, Input{ShippingAddress: shipping()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, float64(1), f.checkoutCount(t, metrics.CheckoutOutcomeRejected))
}

func TestExecuteRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	buyer := Identity{UserID: uuid.New(), Email: "ana@example.com"}
	owner := buyer.UserID.String()
	_, err := f.carts.Add(ctx, owner, f.tire, 1)
	require.NoError(t, err)

	noPhone := shipping()
	noPhone.Phone = " "
	_, err = f.svc.Execute(ctx, buyer, Input{ShippingAddress: noPhone})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Execute(ctx, buyer, Input{ShippingAddress: shipping(), PaymentMethod: "cash"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Execute(ctx, Identity{}, Input{ShippingAddress: shipping()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	state, err := f.carts.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, state.ItemCount)
}

func TestExecuteKeepsCartWhenSubmitFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.orders = failingSubmitter{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "db: insert order")}
	buyer := Identity{UserID: uuid.New(), Email: "ana@example.com"}
	owner := buyer.UserID.String()
	_, err := f.carts.Add(ctx, owner, f.tire, 2)
	require.NoError(t, err)

	_, err = f.svc.Execute(ctx, buyer, Input{ShippingAddress: shipping()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	state, err := f.carts.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, state.ItemCount)
	assert.True(t, decimal.NewFromInt(200).Equal(state.Total))
	assert.Equal(t, float64(1), f.checkoutCount(t, metrics.CheckoutOutcomeFailed))
}

func TestExecuteKeepsItemsAddedDuringSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	buyer := Identity{UserID: uuid.New(), Email: "ana@example.com", Name: "Ana Rojas"}
	owner := buyer.UserID.String()
	_, err := f.carts.Add(ctx, owner, f.tire, 2)
	require.NoError(t, err)

	f.svc.orders = busySubmitter{next: f.orders, during: func() {
		_, err := f.carts.Add(ctx, owner, f.rim, 1)
		require.NoError(t, err)
		_, err = f.carts.Add(ctx, owner, f.tire, 1)
		require.NoError(t, err)
	}}

	res, err := f.svc.Execute(ctx, buyer, Input{ShippingAddress: shipping()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemCount)
	assert.True(t, decimal.NewFromInt(200).Equal(res.Total))

	order, err := f.orders.GetByID(ctx, orders.Actor{UserID: buyer.UserID}, res.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	state, err := f.carts.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, state.Items, 2)
	tireLine, ok := state.Find(f.tire.String())
	require.True(t, ok)
	assert.Equal(t, 1, tireLine.Quantity)
	rimLine, ok := state.Find(f.rim.String())
	require.True(t, ok)
	assert.Equal(t, 1, rimLine.Quantity)
	assert.True(t, decimal.NewFromInt(150).Equal(state.Total))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	logg := logger.New(logger.Options{Output: &bytes.Buffer{}})
	_, err := NewService(nil, failingSubmitter{}, logg, nil)
	assert.Error(t, err)
}
