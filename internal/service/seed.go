package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"storefront/internal/models"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// DecodeProductInputs reads a JSON array of products in the admin payload shape.
func DecodeProductInputs(r io.Reader) ([]models.ProductInput, error) {
	var inputs []models.ProductInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, errors.Wrap(models.ErrValidation, fmt.Sprintf("decode products: %v", err))
	}
	return inputs, nil
}

// Import creates every product in inputs through CreateProduct. The whole
// batch is validated first, so a bad entry leaves the catalog untouched.
func (s *CatalogService) Import(ctx context.Context, inputs []models.ProductInput) (int, error) {
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return 0, errors.Wrapf(err, "product %d", i)
		}
	}

	for i, in := range inputs {
		if _, err := s.CreateProduct(ctx, in); err != nil {
			return i, errors.Wrapf(err, "import product %d", i)
		}
	}
	return len(inputs), nil
}

// SeedFromFile imports the products in path when the catalog is empty. A
// catalog that already holds products is left alone and 0 is returned.
func (s *CatalogService) SeedFromFile(ctx context.Context, path string) (int, error) {
	existing, err := s.products.QueryProducts(ctx, models.CatalogQuery{Page: 1, Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("check catalog before seeding: %w", err)
	}
	if existing.Pagination.Total > 0 {
		s.logger.Info("Catalog already populated, skipping seed",
			zap.String("file", path),
			zap.Int("products", existing.Pagination.Total))
		return 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	inputs, err := DecodeProductInputs(f)
	if err != nil {
		return 0, err
	}
	n, err := s.Import(ctx, inputs)
	if err != nil {
		return n, err
	}
	s.logger.Info("Catalog seeded", zap.String("file", path), zap.Int("products", n))
	return n, nil
}
