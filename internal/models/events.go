package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeProductChanged     = "PRODUCT_CHANGED"
)

// Product change actions
const (
	ProductActionCreated     = "created"
	ProductActionUpdated     = "updated"
	ProductActionDeleted     = "deleted"
	ProductActionStockToggle = "stock_toggled"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when an order is accepted by the store
type OrderCreatedEvent struct {
	BaseEvent
	OrderID  string          `json:"order_id"`
	Total    decimal.Decimal `json:"total"`
	Items    []OrderItem     `json:"items"`
	Customer Customer        `json:"customer"`
}

// OrderStatusChangedEvent published when an admin moves an order out of pending
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID string      `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}

// ProductChangedEvent published on any catalog mutation; consumers drop
// cached query results.
type ProductChangedEvent struct {
	BaseEvent
	ProductID string `json:"product_id"`
	Action    string `json:"action"`
}

// NewBaseEvent stamps a fresh event of eventType.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}
