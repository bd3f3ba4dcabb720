package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/models"
)

// Default paging used when a request leaves page or limit out.
const (
	DefaultPage  = 1
	DefaultLimit = 12
)

// ParseQuery builds a CatalogQuery from request parameters
// (category, inStock, search, sort, page, limit, lang). Limits above maxLimit
// are clamped; a non-positive maxLimit disables the ceiling.
func ParseQuery(values url.Values, defaultLimit, maxLimit int) (models.CatalogQuery, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	q := models.CatalogQuery{
		Category: models.Category(strings.TrimSpace(values.Get("category"))),
		Search:   strings.TrimSpace(values.Get("search")),
		Sort:     models.SortKey(strings.TrimSpace(values.Get("sort"))),
		Page:     DefaultPage,
		Limit:    defaultLimit,
		Lang:     strings.TrimSpace(values.Get("lang")),
	}
	if q.Sort == "" {
		q.Sort = models.SortDefault
	}
	if q.Lang == "" {
		q.Lang = models.DefaultLang
	}

	stock, err := ParseStockFilter(values.Get("inStock"))
	if err != nil {
		return models.CatalogQuery{}, err
	}
	q.InStock = stock

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return models.CatalogQuery{}, models.InvalidQueryf("page must be an integer")
		}
		q.Page = page
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return models.CatalogQuery{}, models.InvalidQueryf("limit must be an integer")
		}
		q.Limit = limit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	if err := q.Validate(); err != nil {
		return models.CatalogQuery{}, err
	}
	return q, nil
}

// ParseStockFilter maps "true"/"false" to a filter and ""/"all" to none.
func ParseStockFilter(raw string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return nil, nil
	case "true":
		v := true
		return &v, nil
	case "false":
		v := false
		return &v, nil
	}
	return nil, models.InvalidQueryf("inStock must be true, false or all")
}

// Values renders q back into request parameters.
func Values(q models.CatalogQuery) url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", string(q.Category))
	}
	if q.InStock != nil {
		v.Set("inStock", strconv.FormatBool(*q.InStock))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Lang != "" {
		v.Set("lang", q.Lang)
	}
	return v
}
