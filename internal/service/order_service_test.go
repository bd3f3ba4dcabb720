package service

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	created  []*models.OrderCreatedEvent
	statuses []*models.OrderStatusChangedEvent
	products []*models.ProductChangedEvent
	err      error
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, e *models.OrderCreatedEvent) error {
	p.created = append(p.created, e)
	return p.err
}

func (p *recordingPublisher) PublishOrderStatusChanged(_ context.Context, e *models.OrderStatusChangedEvent) error {
	p.statuses = append(p.statuses, e)
	return p.err
}

func (p *recordingPublisher) PublishProductChanged(_ context.Context, e *models.ProductChangedEvent) error {
	p.products = append(p.products, e)
	return p.err
}

func validRequest() *models.CreateOrderRequest {
	v := 0
	return &models.CreateOrderRequest{
		Items: []models.OrderItem{
			{ProductID: "soap", VariantIndex: &v, Name: "Soap - Small", Price: decimal.NewFromInt(25), Quantity: 2},
			{ProductID: "mop", Name: "Mop", Price: decimal.RequireFromString("12.5"), Quantity: 1},
		},
		Total:    decimal.RequireFromString("62.5"),
		Customer: models.Customer{Name: "Mona", Phone: "0100"},
	}
}

func TestCreateOrder(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewOrderService(store.NewMemoryStore(), pub)

	res, err := svc.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, res.Duplicate)
	assert.NotEmpty(t, res.Order.ID)
	assert.Equal(t, models.OrderStatusPending, res.Order.Status)
	assert.True(t, decimal.RequireFromString("62.5").Equal(res.Order.Total))
	require.Len(t, pub.created, 1)
	assert.Equal(t, res.Order.ID, pub.created[0].OrderID)
}

func TestCreateOrder_FillsMissingTotal(t *testing.T) {
	svc := NewOrderService(store.NewMemoryStore(), nil)
	req := validRequest()
	req.Total = decimal.Zero

	res, err := svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("62.5").Equal(res.Order.Total))
}

func TestCreateOrder_Rejections(t *testing.T) {
	cases := map[string]func(*models.CreateOrderRequest){
		"no items":       func(r *models.CreateOrderRequest) { r.Items = nil },
		"no name":        func(r *models.CreateOrderRequest) { r.Customer.Name = " " },
		"no phone":       func(r *models.CreateOrderRequest) { r.Customer.Phone = "" },
		"zero quantity":  func(r *models.CreateOrderRequest) { r.Items[0].Quantity = 0 },
		"negative price": func(r *models.CreateOrderRequest) { r.Items[1].Price = decimal.NewFromInt(-1) },
		"total mismatch": func(r *models.CreateOrderRequest) { r.Total = decimal.NewFromInt(60) },
		"no product id":  func(r *models.CreateOrderRequest) { r.Items[0].ProductID = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := store.NewMemoryStore()
			svc := NewOrderService(repo, nil)
			req := validRequest()
			mutate(req)

			_, err := svc.CreateOrder(context.Background(), req)
			assert.ErrorIs(t, err, models.ErrValidation)

			_, total, err := repo.ListOrders(context.Background(), "", 1, 10)
			require.NoError(t, err)
			assert.Zero(t, total)
		})
	}
}

func TestCreateOrder_Idempotent(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewOrderService(store.NewMemoryStore(), pub)
	ctx := context.Background()

	req := validRequest()
	req.IdempotencyKey = "key-1"
	first, err := svc.CreateOrder(ctx, req)
	require.NoError(t, err)

	again, err := svc.CreateOrder(ctx, validRequest2("key-1"))
	require.NoError(t, err)

	assert.True(t, again.Duplicate)
	assert.Equal(t, first.Order.ID, again.Order.ID)
	assert.Len(t, pub.created, 1)
}

func TestCreateOrder_InvalidRequestWithKnownKeyIsRejected(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewOrderService(store.NewMemoryStore(), pub)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, validRequest2("key-1"))
	require.NoError(t, err)

	bad := validRequest2("key-1")
	bad.Items = nil
	res, err := svc.CreateOrder(ctx, bad)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Nil(t, res)
	assert.Len(t, pub.created, 1)
}

func validRequest2(key string) *models.CreateOrderRequest {
	r := validRequest()
	r.IdempotencyKey = key
	return r
}

func TestCreateOrder_PublishFailureIsNotFatal(t *testing.T) {
	svc := NewOrderService(store.NewMemoryStore(), &recordingPublisher{err: errors.New("kafka down")})

	res, err := svc.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Order.ID)
}

func TestUpdateStatus(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewOrderService(store.NewMemoryStore(), pub)
	ctx := context.Background()

	res, err := svc.CreateOrder(ctx, validRequest())
	require.NoError(t, err)
	id := res.Order.ID

	_, err = svc.UpdateStatus(ctx, id, "shipped")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.UpdateStatus(ctx, id, "pending")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	updated, err := svc.UpdateStatus(ctx, id, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, updated.Status)
	require.Len(t, pub.statuses, 1)
	assert.Equal(t, models.OrderStatusPending, pub.statuses[0].From)

	_, err = svc.UpdateStatus(ctx, id, "cancelled")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, "missing", "confirmed")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListOrders(t *testing.T) {
	svc := NewOrderService(store.NewMemoryStore(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateOrder(ctx, validRequest())
		require.NoError(t, err)
	}

	page, err := svc.ListOrders(ctx, ListOrdersQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 1)
	assert.Equal(t, models.Pagination{Total: 3, Page: 2, Pages: 2, Limit: 2}, page.Pagination)

	_, err = svc.ListOrders(ctx, ListOrdersQuery{Status: "lost", Page: 1, Limit: 2})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.ListOrders(ctx, ListOrdersQuery{Page: 0, Limit: 2})
	assert.ErrorIs(t, err, models.ErrValidation)
}
