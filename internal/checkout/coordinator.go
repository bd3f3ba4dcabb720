package checkout

import (
	"context"
	"strconv"

	"storefront/internal/cart"
	"storefront/internal/history"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderWriter is the remote durable order store.
type OrderWriter interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.OrderReceipt, error)
}

// Outcome reports what a submission did. RemoteSaved distinguishes
// "saved to server" from "saved locally only"; local-only orders stay
// flagged in the history log for later reconciliation.
type Outcome struct {
	Order          models.Order
	RemoteSaved    bool
	RemoteOrderID  string
	RemoteErr      error
	HistoryEntryID string
	HistoryErr     error
	Message        string
	HandoffURL     string
	Notice         string
}

// Empty reports whether the submission was a no-op on an empty cart.
func (o *Outcome) Empty() bool {
	return len(o.Order.Items) == 0
}

// Coordinator turns the cart into an order that is never silently lost.
type Coordinator struct {
	ledger        *cart.Ledger
	catalog       cart.Catalog
	history       *history.Log
	remote        OrderWriter
	whatsAppPhone string
	logger        *zap.Logger
}

// NewCoordinator creates a new order submission coordinator
func NewCoordinator(
	ledger *cart.Ledger,
	catalog cart.Catalog,
	historyLog *history.Log,
	remote OrderWriter,
	whatsAppPhone string,
) *Coordinator {
	return &Coordinator{
		ledger:        ledger,
		catalog:       catalog,
		history:       historyLog,
		remote:        remote,
		whatsAppPhone: whatsAppPhone,
		logger:        util.GetLogger(),
	}
}

// Submit snapshots the cart into an order, tries the remote store once,
// always records the order locally, clears the cart and returns the handoff.
// Only customer validation fails the call; remote and local storage failures
// are reported on the Outcome.
func (c *Coordinator) Submit(ctx context.Context, customer models.Customer, lang string) (*Outcome, error) {
	ctx, span := util.StartSpan(ctx, "Coordinator.Submit")
	defer span.End()

	if err := customer.Validate(); err != nil {
		return nil, err
	}

	items, resolved := c.snapshotItems(lang)
	if len(items) == 0 {
		return &Outcome{Order: models.Order{Total: decimal.Zero, Customer: customer}}, nil
	}

	order := models.NewOrder(items, customer)
	order.IdempotencyKey = uuid.New().String()

	out := &Outcome{Order: order}

	receipt, err := c.remote.CreateOrder(ctx, &models.CreateOrderRequest{
		Items:          order.Items,
		Total:          order.Total,
		Customer:       order.Customer,
		IdempotencyKey: order.IdempotencyKey,
	})
	if err != nil {
		out.RemoteErr = err
		c.logger.Warn("Failed to save order to remote store, keeping it locally",
			zap.String("idempotency_key", order.IdempotencyKey),
			zap.Error(err))
	} else {
		out.RemoteSaved = true
		out.RemoteOrderID = receipt.ID
		out.Order.ID = receipt.ID
		out.Order.Status = receipt.Status
	}

	entry, err := c.history.Record(out.Order, out.RemoteSaved, out.RemoteOrderID)
	if err != nil {
		out.HistoryErr = err
		c.logger.Error("Failed to record order in local history", zap.Error(err))
	} else {
		out.HistoryEntryID = entry.ID
	}

	if err := c.ledger.Clear(); err != nil {
		c.logger.Error("Failed to clear cart after submission", zap.Error(err))
	}

	out.Message = BuildMessage(resolved, order.Total, customer, lang)
	out.HandoffURL = HandoffURL(c.whatsAppPhone, out.Message)
	out.Notice = Notice(out.RemoteSaved, lang)

	util.CheckoutSubmissionsTotal.WithLabelValues(strconv.FormatBool(out.RemoteSaved)).Inc()
	c.logger.Info("Order submitted",
		zap.Bool("remote_saved", out.RemoteSaved),
		zap.String("remote_order_id", out.RemoteOrderID),
		zap.String("total", order.Total.String()),
		zap.Int("lines", len(order.Items)))

	return out, nil
}

// Preview renders the handoff message for the current cart without
// submitting anything.
func (c *Coordinator) Preview(customer models.Customer, lang string) (string, error) {
	if err := customer.Validate(); err != nil {
		return "", err
	}
	items, resolved := c.snapshotItems(lang)
	return BuildMessage(resolved, models.OrderTotal(items), customer, lang), nil
}

// snapshotItems freezes the cart into order items. Lines that no longer
// resolve keep their place with a sentinel name and zero price; resolved
// holds only the lines that priced successfully.
func (c *Coordinator) snapshotItems(lang string) (items, resolved []models.OrderItem) {
	for _, line := range c.ledger.Lines() {
		item := models.OrderItem{
			ProductID:    line.ProductID,
			VariantIndex: line.VariantIndex,
			Name:         models.UnknownProductName,
			Price:        decimal.Zero,
			Quantity:     line.Quantity,
		}
		if r, ok := cart.Resolve(c.catalog, line, lang); ok {
			item.Name = r.Name
			item.Price = r.UnitPrice
			resolved = append(resolved, item)
		}
		items = append(items, item)
	}
	return items, resolved
}
