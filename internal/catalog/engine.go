package catalog

import (
	"sort"
	"strings"

	"storefront/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Query filters, sorts and pages products in memory. The input slice is not
// modified. Filtering happens before sorting and sorting before pagination, so
// Pagination.Total is always the filtered count.
func Query(products []models.Product, q models.CatalogQuery) (models.CatalogResult, error) {
	if err := q.Validate(); err != nil {
		return models.CatalogResult{}, err
	}

	matched := Filter(products, q)
	Sort(matched, q.Sort, q.Lang)

	total := len(matched)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	items := make([]models.Product, end-start)
	copy(items, matched[start:end])

	return models.CatalogResult{
		Items:      items,
		Pagination: models.NewPagination(total, q.Page, q.Limit),
	}, nil
}

// Filter returns the products matching the category, stock and search
// filters of q, in their original order.
func Filter(products []models.Product, q models.CatalogQuery) []models.Product {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if q.Category != "" && q.Category != models.CategoryAll && p.Category != q.Category {
			continue
		}
		if q.InStock != nil && p.InStock != *q.InStock {
			continue
		}
		if needle != "" && !p.Name.Contains(needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort orders products in place. Every key is applied on top of the recency
// order, so ties keep newest-first.
func Sort(products []models.Product, key models.SortKey, lang string) {
	sort.SliceStable(products, func(i, j int) bool {
		return newerFirst(&products[i], &products[j])
	})

	switch key {
	case models.SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case models.SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case models.SortName:
		if lang == "" {
			lang = models.DefaultLang
		}
		col := collate.New(language.Make(lang), collate.IgnoreCase)
		sort.SliceStable(products, func(i, j int) bool {
			return col.CompareString(products[i].Name.Get(lang), products[j].Name.Get(lang)) < 0
		})
	}
}

func newerFirst(a, b *models.Product) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
