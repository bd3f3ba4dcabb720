package models

// SortKey selects the catalog ordering.
type SortKey string

// Sort keys
const (
	SortDefault   SortKey = "default"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortName      SortKey = "name"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortDefault, SortPriceAsc, SortPriceDesc, SortName:
		return true
	}
	return false
}

// CatalogQuery is a filtered, sorted, paged request against the catalog.
// Empty Category or CategoryAll and a nil InStock mean no filtering.
type CatalogQuery struct {
	Category Category `json:"category,omitempty"`
	InStock  *bool    `json:"inStock,omitempty"`
	Search   string   `json:"search,omitempty"`
	Sort     SortKey  `json:"sort,omitempty"`
	Page     int      `json:"page"`
	Limit    int      `json:"limit"`
	Lang     string   `json:"lang,omitempty"`
}

// Validate checks the query against the catalog contract.
func (q CatalogQuery) Validate() error {
	if q.Limit <= 0 {
		return InvalidQueryf("limit must be greater than 0")
	}
	if q.Page < 1 {
		return InvalidQueryf("page must be at least 1")
	}
	if q.Category != "" && q.Category != CategoryAll && !q.Category.Valid() {
		return InvalidQueryf("unknown category %q", q.Category)
	}
	if q.Sort != "" && !q.Sort.Valid() {
		return InvalidQueryf("unknown sort %q", q.Sort)
	}
	if q.Lang != "" && !ValidLang(q.Lang) {
		return InvalidQueryf("unknown language %q", q.Lang)
	}
	return nil
}

// Offset is the number of matches skipped before the page starts.
func (q CatalogQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination describes where a page sits in the full match set.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Limit int `json:"limit"`
}

// NewPagination derives the page count as ceil(total/limit).
func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Page: page, Pages: pages, Limit: limit}
}

// CatalogResult is one page of matching products.
type CatalogResult struct {
	Items      []Product  `json:"data"`
	Pagination Pagination `json:"pagination"`
}
