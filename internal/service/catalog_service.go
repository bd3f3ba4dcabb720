package service

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// CatalogService serves catalog queries cache-aside and applies product
// administration.
type CatalogService struct {
	products  ProductRepository
	cache     CatalogCache
	publisher EventPublisher
	logger    *zap.Logger
}

// NewCatalogService creates a new catalog service. cache and publisher may
// be nil.
func NewCatalogService(products ProductRepository, cache CatalogCache, publisher EventPublisher) *CatalogService {
	return &CatalogService{
		products:  products,
		cache:     cache,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Query answers q from the cache when possible, else from the store.
func (s *CatalogService) Query(ctx context.Context, q models.CatalogQuery) (*models.CatalogResult, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Query")
	defer span.End()

	if err := q.Validate(); err != nil {
		return nil, err
	}
	util.CatalogQueriesTotal.WithLabelValues(string(q.Sort)).Inc()

	// version stays -1 when the cache could not be read, so nothing is written back.
	version := int64(-1)
	if s.cache != nil {
		cached, v, ok, err := s.cache.GetCatalog(ctx, q)
		switch {
		case err != nil:
			s.logger.Warn("Catalog cache read failed", zap.Error(err))
		case ok:
			util.CatalogCacheHitsTotal.Inc()
			return cached, nil
		default:
			version = v
		}
		util.CatalogCacheMissesTotal.Inc()
	}

	start := time.Now()
	result, err := s.products.QueryProducts(ctx, q)
	util.CatalogQueryLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if s.cache != nil && version >= 0 {
		if err := s.cache.SetCatalog(ctx, version, q, result); err != nil {
			s.logger.Warn("Catalog cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

// GetProduct retrieves a product by ID
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.products.GetProduct(ctx, id)
}

// Categories lists the closed category set with display names.
func (s *CatalogService) Categories() []models.CategoryInfo {
	return models.Categories
}

func (s *CatalogService) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := &models.Product{}
	in.Apply(p)
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.changed(ctx, p.ID, models.ProductActionCreated)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := &models.Product{ID: id}
	in.Apply(p)
	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.changed(ctx, id, models.ProductActionUpdated)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, id, models.ProductActionDeleted)
	return nil
}

func (s *CatalogService) ToggleStock(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.ToggleStock(ctx, id)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, id, models.ProductActionStockToggle)
	return p, nil
}

// changed drops cached pages locally and tells other instances to do the
// same. Failures are logged only.
func (s *CatalogService) changed(ctx context.Context, productID, action string) {
	util.ProductMutationsTotal.WithLabelValues(action).Inc()
	s.logger.Info("Product changed", zap.String("product_id", productID), zap.String("action", action))

	if s.cache != nil {
		if err := s.cache.InvalidateCatalog(ctx); err != nil {
			s.logger.Error("Failed to invalidate catalog cache", zap.Error(err))
		} else {
			util.CatalogCacheInvalidationsTotal.Inc()
		}
	}

	if s.publisher != nil {
		event := &models.ProductChangedEvent{
			BaseEvent: models.NewBaseEvent(models.EventTypeProductChanged),
			ProductID: productID,
			Action:    action,
		}
		if err := s.publisher.PublishProductChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish ProductChanged event", zap.Error(err))
		}
	}
}
