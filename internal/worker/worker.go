package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// CacheInvalidator drops cached catalog pages.
type CacheInvalidator interface {
	InvalidateCatalog(ctx context.Context) error
}

// EventWorker reacts to storefront events: product changes drop cached
// catalog pages on every instance, new orders are surfaced to operators.
type EventWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	cache        CacheInvalidator
	logger       *zap.Logger
}

// NewEventWorker creates a new event worker. cache may be nil when the
// query cache is disabled.
func NewEventWorker(consumer *broker.Consumer, cache CacheInvalidator) *EventWorker {
	w := &EventWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		cache:        cache,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnProductChanged(w.HandleProductChanged)
	w.eventHandler.OnOrderCreated(w.HandleOrderCreated)
	w.eventHandler.OnOrderStatusChanged(w.HandleOrderStatusChanged)

	return w
}

// Start starts the worker
func (w *EventWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting event worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *EventWorker) Stop() error {
	w.logger.Info("Stopping event worker")
	return w.consumer.Close()
}

// HandleProductChanged invalidates the catalog cache.
func (w *EventWorker) HandleProductChanged(ctx context.Context, event *models.ProductChangedEvent) error {
	if w.cache == nil {
		return nil
	}
	if err := w.cache.InvalidateCatalog(ctx); err != nil {
		return err
	}
	util.CatalogCacheInvalidationsTotal.Inc()
	w.logger.Info("Catalog cache invalidated",
		zap.String("product_id", event.ProductID),
		zap.String("action", event.Action))
	return nil
}

// HandleOrderCreated logs a new order for whoever fulfils it.
func (w *EventWorker) HandleOrderCreated(_ context.Context, event *models.OrderCreatedEvent) error {
	w.logger.Info("New order received",
		zap.String("order_id", event.OrderID),
		zap.String("total", event.Total.String()),
		zap.Int("items", len(event.Items)),
		zap.String("customer", event.Customer.Name),
		zap.String("phone", event.Customer.Phone))
	return nil
}

func (w *EventWorker) HandleOrderStatusChanged(_ context.Context, event *models.OrderStatusChangedEvent) error {
	w.logger.Info("Order status changed",
		zap.String("order_id", event.OrderID),
		zap.String("from", string(event.From)),
		zap.String("to", string(event.To)))
	return nil
}
