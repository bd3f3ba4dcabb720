package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

// Display languages
const (
	LangAR = "ar"
	LangEN = "en"

	// DefaultLang is the primary display language of the storefront.
	DefaultLang = LangAR
)

// DefaultProductImage is used when a product is created without an image.
const DefaultProductImage = "images/default-product.svg"

// UnknownProductName names order lines whose product vanished from the catalog.
const UnknownProductName = "Unknown Product"

// ValidLang reports whether lang is a supported display language.
func ValidLang(lang string) bool {
	return lang == LangAR || lang == LangEN
}

// LocalizedText holds a string in both display languages.
type LocalizedText struct {
	AR string `json:"ar"`
	EN string `json:"en"`
}

// Get returns the text in lang, falling back to English when it is absent.
func (t LocalizedText) Get(lang string) string {
	if lang == LangAR && t.AR != "" {
		return t.AR
	}
	return t.EN
}

// Contains reports whether needle (already lower-cased) is a substring of
// either language, case-insensitively.
func (t LocalizedText) Contains(needle string) bool {
	return strings.Contains(strings.ToLower(t.AR), needle) ||
		strings.Contains(strings.ToLower(t.EN), needle)
}

// Category is one of the closed set of catalog sections.
type Category string

// Product categories
const (
	CategoryAll      Category = "all"
	CategoryKitchen  Category = "kitchen"
	CategoryLaundry  Category = "laundry"
	CategoryFloor    Category = "floor"
	CategoryBathroom Category = "bathroom"
)

// Valid reports whether c names a concrete category ("all" is not one).
func (c Category) Valid() bool {
	switch c {
	case CategoryKitchen, CategoryLaundry, CategoryFloor, CategoryBathroom:
		return true
	}
	return false
}

// CategoryInfo describes a category for listings.
type CategoryInfo struct {
	ID   Category      `json:"id"`
	Name LocalizedText `json:"name"`
	Icon string        `json:"icon"`
}

// Categories lists every category, "all" first.
var Categories = []CategoryInfo{
	{ID: CategoryAll, Name: LocalizedText{AR: "الكل", EN: "All"}, Icon: "🏠"},
	{ID: CategoryKitchen, Name: LocalizedText{AR: "المطبخ", EN: "Kitchen"}, Icon: "🍽️"},
	{ID: CategoryLaundry, Name: LocalizedText{AR: "الغسيل", EN: "Laundry"}, Icon: "👕"},
	{ID: CategoryFloor, Name: LocalizedText{AR: "الأرضيات", EN: "Floors"}, Icon: "🏠"},
	{ID: CategoryBathroom, Name: LocalizedText{AR: "الحمام", EN: "Bathroom"}, Icon: "🚿"},
}

// Variant is a priced option of a product, addressed by its position in the
// parent's variant list.
type Variant struct {
	Name    LocalizedText   `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Image   string          `json:"image,omitempty"`
	InStock bool            `json:"inStock"`
}

// Product represents a product in the catalog. When Variants is non-empty the
// base Price and Image are display defaults only.
type Product struct {
	ID          string          `json:"id"`
	Name        LocalizedText   `json:"name"`
	Description LocalizedText   `json:"description"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	InStock     bool            `json:"inStock"`
	Variants    []Variant       `json:"variants,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// HasVariants reports whether the product is sold through variants.
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// Variant returns the variant at index i.
func (p *Product) Variant(i int) (*Variant, bool) {
	if i < 0 || i >= len(p.Variants) {
		return nil, false
	}
	return &p.Variants[i], true
}

// Order statuses
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus accepts only the four known statuses.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDelivered, OrderStatusCancelled:
		return st, nil
	}
	return "", Invalidf("invalid status %q", s)
}

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s != OrderStatusPending
}

// CanTransitionTo reports whether an order in s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusPending && next != OrderStatusPending
}

// Customer identifies who placed an order.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
}

// Validate checks the required contact fields.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalidf("customer name is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return Invalidf("customer phone is required")
	}
	return nil
}

// OrderItem is an immutable order line captured at submission time.
type OrderItem struct {
	ProductID    string          `json:"productId"`
	VariantIndex *int            `json:"variantIndex"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
}

// Subtotal is price × quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer order
type Order struct {
	ID             string          `json:"id"`
	Items          []OrderItem     `json:"items"`
	Total          decimal.Decimal `json:"total"`
	Customer       Customer        `json:"customer"`
	Status         OrderStatus     `json:"status"`
	IdempotencyKey string          `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// OrderTotal sums the subtotals of items.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// NewOrder builds a pending order whose total is derived from its items.
func NewOrder(items []OrderItem, customer Customer) Order {
	now := time.Now().UTC()
	return Order{
		Items:     items,
		Total:     OrderTotal(items),
		Customer:  customer,
		Status:    OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
