package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ErrDuplicateKey is returned when an order reuses an idempotency key that
// another insert claimed first.
var ErrDuplicateKey = errors.New("idempotency key already used")

const orderColumns = `id, items, total, customer_name, customer_phone, customer_address,
	status, idempotency_key, created_at, updated_at`

type orderRow struct {
	ID              string          `db:"id"`
	Items           []byte          `db:"items"`
	Total           decimal.Decimal `db:"total"`
	CustomerName    string          `db:"customer_name"`
	CustomerPhone   string          `db:"customer_phone"`
	CustomerAddress string          `db:"customer_address"`
	Status          string          `db:"status"`
	IdempotencyKey  sql.NullString  `db:"idempotency_key"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (r *orderRow) toModel() (*models.Order, error) {
	o := &models.Order{
		ID:    r.ID,
		Total: r.Total,
		Customer: models.Customer{
			Name:    r.CustomerName,
			Phone:   r.CustomerPhone,
			Address: r.CustomerAddress,
		},
		Status:         models.OrderStatus(r.Status),
		IdempotencyKey: r.IdempotencyKey.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", r.ID, err)
	}
	return o, nil
}

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	key := sql.NullString{String: order.IdempotencyKey, Valid: order.IdempotencyKey != ""}

	query := `
		INSERT INTO orders (id, items, total, customer_name, customer_phone,
			customer_address, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err = s.db.QueryRowxContext(ctx, query,
		order.ID, items, order.Total, order.Customer.Name, order.Customer.Phone,
		order.Customer.Address, string(order.Status), key,
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateKey
	}
	return err
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("order %s", id)
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, "SELECT "+orderColumns+" FROM orders WHERE idempotency_key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// ListOrders returns one page of orders, newest first. An empty status
// lists every order.
func (s *Store) ListOrders(ctx context.Context, status models.OrderStatus, page, limit int) ([]models.Order, int, error) {
	where := ""
	var args []interface{}
	if status != "" {
		where = " WHERE status = $1"
		args = append(args, string(status))
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var rows []orderRow
	err := s.db.SelectContext(ctx, &rows,
		fmt.Sprintf("SELECT %s FROM orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
			orderColumns, where, len(args)+1, len(args)+2),
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]models.Order, 0, len(rows))
	for i := range rows {
		o, err := rows[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, total, nil
}

// UpdateOrderStatus moves an order from one status to another. The update
// only applies while the order is still in from.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3 RETURNING "+orderColumns,
		string(to), id, string(from))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := s.GetOrderByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, errors.Wrapf(models.ErrInvalidTransition, "order %s is no longer %s", id, from)
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}
