package service

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// DefaultOrderPageSize is the admin order listing page size.
const DefaultOrderPageSize = 20

// OrderService handles order business logic
type OrderService struct {
	orders    OrderRepository
	publisher EventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service. publisher may be nil.
func NewOrderService(orders OrderRepository, publisher EventPublisher) *OrderService {
	return &OrderService{
		orders:    orders,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// CreateOrderResult is the stored order and whether it was already there.
type CreateOrderResult struct {
	Order     *models.Order
	Duplicate bool
}

// CreateOrder validates and stores a submitted order. A valid request that
// repeats an idempotency key returns the order first stored under it.
func (s *OrderService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*CreateOrderResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := validateOrderRequest(req); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.orders.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
		if existing != nil {
			return s.duplicate(existing), nil
		}
	}

	order := models.NewOrder(req.Items, req.Customer)
	order.IdempotencyKey = req.IdempotencyKey

	if err := s.orders.CreateOrder(ctx, &order); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			existing, getErr := s.orders.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
			if getErr == nil && existing != nil {
				return s.duplicate(existing), nil
			}
		}
		util.OrdersRejectedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("total", order.Total.String()),
		zap.Int("items", len(order.Items)))

	if s.publisher != nil {
		event := &models.OrderCreatedEvent{
			BaseEvent: models.NewBaseEvent(models.EventTypeOrderCreated),
			OrderID:   order.ID,
			Total:     order.Total,
			Items:     order.Items,
			Customer:  order.Customer,
		}
		if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
		}
	}

	return &CreateOrderResult{Order: &order}, nil
}

func (s *OrderService) duplicate(existing *models.Order) *CreateOrderResult {
	util.OrdersDuplicateTotal.Inc()
	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", existing.IdempotencyKey),
		zap.String("order_id", existing.ID))
	return &CreateOrderResult{Order: existing, Duplicate: true}
}

// validateOrderRequest checks the items, the customer and the total. A zero
// total is filled in from the items; any other total must match them.
func validateOrderRequest(req *models.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return models.Invalidf("Order must contain at least one item")
	}
	if err := req.Customer.Validate(); err != nil {
		return err
	}
	for i, item := range req.Items {
		if item.ProductID == "" {
			return models.Invalidf("item %d is missing productId", i)
		}
		if item.Quantity <= 0 {
			return models.Invalidf("item %d quantity must be greater than 0", i)
		}
		if item.Price.IsNegative() {
			return models.Invalidf("item %d price cannot be negative", i)
		}
	}

	computed := models.OrderTotal(req.Items)
	if !req.Total.IsZero() && !req.Total.Equal(computed) {
		return models.Invalidf("Order total %s does not match items total %s", req.Total, computed)
	}
	return nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.GetOrderByID(ctx, id)
}

// ListOrdersQuery selects a page of orders; an empty Status lists all.
type ListOrdersQuery struct {
	Status models.OrderStatus
	Page   int
	Limit  int
}

// OrderPage is one page of the order listing.
type OrderPage struct {
	Orders     []models.Order    `json:"orders"`
	Pagination models.Pagination `json:"pagination"`
}

func (s *OrderService) ListOrders(ctx context.Context, q ListOrdersQuery) (*OrderPage, error) {
	if q.Page < 1 {
		return nil, models.Invalidf("page must be at least 1")
	}
	if q.Limit <= 0 {
		return nil, models.Invalidf("limit must be greater than 0")
	}
	if q.Status != "" {
		if _, err := models.ParseOrderStatus(string(q.Status)); err != nil {
			return nil, err
		}
	}

	orders, total, err := s.orders.ListOrders(ctx, q.Status, q.Page, q.Limit)
	if err != nil {
		return nil, err
	}
	return &OrderPage{
		Orders:     orders,
		Pagination: models.NewPagination(total, q.Page, q.Limit),
	}, nil
}

// UpdateStatus moves a pending order to rawStatus. Orders that already left
// pending cannot change again.
func (s *OrderService) UpdateStatus(ctx context.Context, id, rawStatus string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	next, err := models.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, errors.Wrapf(models.ErrInvalidTransition, "cannot move order from %s to %s", order.Status, next)
	}

	updated, err := s.orders.UpdateOrderStatus(ctx, id, order.Status, next)
	if err != nil {
		return nil, err
	}

	util.OrderStatusUpdatesTotal.WithLabelValues(string(next)).Inc()
	s.logger.Info("Order status updated",
		zap.String("order_id", id),
		zap.String("from", string(order.Status)),
		zap.String("to", string(next)))

	if s.publisher != nil {
		event := &models.OrderStatusChangedEvent{
			BaseEvent: models.NewBaseEvent(models.EventTypeOrderStatusChanged),
			OrderID:   id,
			From:      order.Status,
			To:        next,
		}
		if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}
	return updated, nil
}
