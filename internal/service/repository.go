package service

import (
	"context"

	"storefront/internal/models"
)

// ProductRepository is the catalog store. Implemented by store.Store
// (Postgres) and store.MemoryStore.
type ProductRepository interface {
	QueryProducts(ctx context.Context, q models.CatalogQuery) (*models.CatalogResult, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ToggleStock(ctx context.Context, id string) (*models.Product, error)
}

// OrderRepository is the remote order store.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus, page, limit int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error)
}

// CatalogCache holds rendered catalog pages.
type CatalogCache interface {
	GetCatalog(ctx context.Context, q models.CatalogQuery) (*models.CatalogResult, int64, bool, error)
	SetCatalog(ctx context.Context, version int64, q models.CatalogQuery, result *models.CatalogResult) error
	InvalidateCatalog(ctx context.Context) error
}

// EventPublisher emits domain events.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishProductChanged(ctx context.Context, event *models.ProductChangedEvent) error
}
