package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the wire shape of an order submission.
type CreateOrderRequest struct {
	Items          []OrderItem     `json:"items"`
	Total          decimal.Decimal `json:"total"`
	Customer       Customer        `json:"customer"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
}

// OrderReceipt is what the store returns for an accepted order.
type OrderReceipt struct {
	ID        string          `json:"id"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Receipt summarizes o.
func (o *Order) Receipt() OrderReceipt {
	return OrderReceipt{
		ID:        o.ID,
		Total:     o.Total,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}

// ProductInput is the admin payload for creating or replacing a product.
type ProductInput struct {
	Name        LocalizedText   `json:"name"`
	Description LocalizedText   `json:"description"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	InStock     *bool           `json:"inStock"`
	Variants    []Variant       `json:"variants"`
}

// Validate applies the catalog's field rules.
func (in ProductInput) Validate() error {
	if in.Name.AR == "" {
		return Invalidf("Please provide Arabic product name")
	}
	if in.Name.EN == "" {
		return Invalidf("Please provide English product name")
	}
	if in.Price.IsNegative() {
		return Invalidf("Price cannot be negative")
	}
	if !in.Category.Valid() {
		return Invalidf("Category must be: kitchen, laundry, floor, or bathroom")
	}
	for i, v := range in.Variants {
		if v.Price.IsNegative() {
			return Invalidf("variant %d price cannot be negative", i)
		}
	}
	return nil
}

// Apply copies the input onto p, defaulting image and stock.
func (in ProductInput) Apply(p *Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Category = in.Category
	p.Price = in.Price
	p.Image = in.Image
	if p.Image == "" {
		p.Image = DefaultProductImage
	}
	p.InStock = true
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
	p.Variants = in.Variants
}
