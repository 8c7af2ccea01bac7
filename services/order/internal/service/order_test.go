package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/pkg/db"
	"github.com/microshop/platform/pkg/events"
	"github.com/microshop/platform/services/order/internal/domain"
	"github.com/microshop/platform/services/order/internal/models"
	"github.com/microshop/platform/services/order/internal/repo"
	"github.com/microshop/platform/services/order/internal/transport"
)

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if topic == events.TopicOrder {
		p.types = append(p.types, ev.Type)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newTestService(t *testing.T) (*OrderService, *recordingPublisher) {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb, models.All()...))
	t.Cleanup(func() { _ = db.Close(gdb) })

	pub := &recordingPublisher{}
	return &OrderService{Repo: &repo.GormRepo{DB: gdb}, Events: pub}, pub
}

func itemFor(product uuid.UUID, qty int, price int64) transport.OrderItemRequest {
	return transport.OrderItemRequest{ProductID: product, Quantity: qty, Price: price}
}

func byProduct(items []models.OrderItem) map[uuid.UUID]models.OrderItem {
	m := make(map[uuid.UUID]models.OrderItem, len(items))
	for _, it := range items {
		m[it.ProductID] = it
	}
	return m
}

func TestOrderService_CreateAndGet(t *testing.T) {
	t.Parallel()

	svc, pub := newTestService(t)
	ctx := context.Background()
	alice := Caller{ID: uuid.New()}
	lamp, chair := uuid.New(), uuid.New()

	order, err := svc.CreateOrder(ctx, alice, transport.OrderRequest{Items: []transport.OrderItemRequest{
		itemFor(lamp, 2, 2500),
		itemFor(chair, 1, 9900),
	}})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, order.UserID)
	assert.Equal(t, models.OrderStatusNew, order.Status)
	assert.EqualValues(t, 2*2500+9900, order.TotalPrice)

	got, err := svc.GetOrder(ctx, alice, order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, order.TotalPrice, got.TotalPrice)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, 2, byProduct(got.Items)[lamp].Quantity)

	assert.Equal(t, []string{"order_created"}, pub.types)
}

func TestOrderService_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := Caller{ID: uuid.New()}

	tests := []struct {
		name  string
		items []transport.OrderItemRequest
	}{
		{name: "no items", items: nil},
		{name: "nil product", items: []transport.OrderItemRequest{itemFor(uuid.Nil, 1, 100)}},
		{name: "zero quantity", items: []transport.OrderItemRequest{itemFor(uuid.New(), 0, 100)}},
		{name: "zero price", items: []transport.OrderItemRequest{itemFor(uuid.New(), 1, 0)}},
		{name: "quantity above bound", items: []transport.OrderItemRequest{itemFor(uuid.New(), 10001, 100)}},
		{name: "price above bound", items: []transport.OrderItemRequest{itemFor(uuid.New(), 1, 100_000_000_001)}},
		{name: "overflowing line", items: []transport.OrderItemRequest{itemFor(uuid.New(), 1<<30, 1<<40)}},
		{name: "too many items", items: manyItems(domain.MaxOrderItems + 1)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, alice, transport.OrderRequest{Items: tt.items})
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func manyItems(n int) []transport.OrderItemRequest {
	items := make([]transport.OrderItemRequest, n)
	for i := range items {
		items[i] = itemFor(uuid.New(), 1, 100)
	}
	return items
}

func TestOrderService_Update_ItemCapHolds(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := Caller{ID: uuid.New()}

	order, err := svc.CreateOrder(ctx, alice, transport.OrderRequest{Items: manyItems(domain.MaxOrderItems)})
	require.NoError(t, err)

	_, err = svc.UpdateOrder(ctx, alice, order.ID, transport.OrderRequest{Items: manyItems(1)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.GetOrder(ctx, alice, order.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, domain.MaxOrderItems)
	assert.EqualValues(t, 100*domain.MaxOrderItems, got.TotalPrice)

	// updating a known product does not grow the order
	_, err = svc.UpdateOrder(ctx, alice, order.ID, transport.OrderRequest{Items: []transport.OrderItemRequest{
		itemFor(got.Items[0].ProductID, 10000, 100_000_000_000),
	}})
	require.NoError(t, err)
}

func TestOrderService_UpdateMergesByProduct(t *testing.T) {
	t.Parallel()

	svc, pub := newTestService(t)
	ctx := context.Background()
	alice := Caller{ID: uuid.New()}
	lamp, chair, desk := uuid.New(), uuid.New(), uuid.New()

	order, err := svc.CreateOrder(ctx, alice, transport.OrderRequest{Items: []transport.OrderItemRequest{
		itemFor(lamp, 1, 2500),
		itemFor(chair, 2, 9900),
	}})
	require.NoError(t, err)

	updated, err := svc.UpdateOrder(ctx, alice, order.ID, transport.OrderRequest{Items: []transport.OrderItemRequest{
		itemFor(chair, 1, 8900),
		itemFor(desk, 1, 19900),
	}})
	require.NoError(t, err)
	assert.EqualValues(t, 2500+8900+19900, updated.TotalPrice)

	got, err := svc.GetOrder(ctx, alice, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	items := byProduct(got.Items)
	assert.Equal(t, 1, items[chair].Quantity)
	assert.EqualValues(t, 8900, items[chair].Price)
	assert.Equal(t, 1, items[lamp].Quantity)
	assert.Contains(t, items, desk)
	assert.EqualValues(t, updated.TotalPrice, got.TotalPrice)

	assert.Equal(t, []string{"order_created", "order_updated"}, pub.types)
}

func TestOrderService_Ownership(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := Caller{ID: uuid.New()}
	bob := Caller{ID: uuid.New()}
	admin := Caller{ID: uuid.New(), Admin: true}

	order, err := svc.CreateOrder(ctx, alice, transport.OrderRequest{Items: []transport.OrderItemRequest{itemFor(uuid.New(), 1, 100)}})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, bob, transport.OrderRequest{Items: []transport.OrderItemRequest{itemFor(uuid.New(), 1, 100)}})
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, bob, order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.UpdateOrder(ctx, bob, order.ID, transport.OrderRequest{Items: []transport.OrderItemRequest{itemFor(uuid.New(), 1, 1)}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteOrder(ctx, bob, order.ID), apperr.ErrNotFound)

	total, orders, err := svc.ListOrders(ctx, alice, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, order.ID, orders[0].ID)

	total, _, err = svc.ListOrders(ctx, admin, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, err = svc.GetOrder(ctx, admin, order.ID)
	require.NoError(t, err)
}

func TestOrderService_Delete(t *testing.T) {
	t.Parallel()

	svc, pub := newTestService(t)
	svc.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()
	alice := Caller{ID: uuid.New()}

	order, err := svc.CreateOrder(ctx, alice, transport.OrderRequest{Items: []transport.OrderItemRequest{itemFor(uuid.New(), 1, 100)}})
	require.NoError(t, err)
	assert.Equal(t, 2026, order.OrderDate.Year())

	require.NoError(t, svc.DeleteOrder(ctx, alice, order.ID))
	_, err = svc.GetOrder(ctx, alice, order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteOrder(ctx, alice, order.ID), apperr.ErrNotFound)

	assert.Equal(t, []string{"order_created", "order_deleted"}, pub.types)
}
