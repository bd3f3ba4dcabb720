package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// snapshotPageSize is the page size used to walk the whole catalog.
const snapshotPageSize = 100

// Client talks to the storefront HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  util.GetLogger(),
	}
}

// RemoteError is a non-success answer from the API.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote returned %d", e.Status)
	}
	return fmt.Sprintf("remote returned %d: %s", e.Status, e.Message)
}

// Is maps the status onto the shared error taxonomy. Every RemoteError
// counts as the remote store being unavailable for the write.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case models.ErrRemoteUnavailable:
		return true
	case models.ErrValidation:
		return e.Status == http.StatusBadRequest
	case models.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

type envelope struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	Data       []models.Product     `json:"data"`
	Pagination models.Pagination    `json:"pagination"`
	Order      *models.OrderReceipt `json:"order"`
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(models.ErrRemoteUnavailable, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, errors.Wrap(models.ErrRemoteUnavailable, err.Error())
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Status: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return nil, errors.Wrapf(models.ErrRemoteUnavailable, "decode response: %v", decodeErr)
	}
	if !env.Success {
		return nil, &RemoteError{Status: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}

// FetchPage runs one catalog query against the server.
func (c *Client) FetchPage(ctx context.Context, q models.CatalogQuery) (*models.CatalogResult, error) {
	ctx, span := util.StartSpan(ctx, "apiclient.FetchPage")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/products?"+catalog.Values(q).Encode(), nil)
	if err != nil {
		return nil, err
	}

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		env.Data = []models.Product{}
	}
	return &models.CatalogResult{Items: env.Data, Pagination: env.Pagination}, nil
}

// FetchAll walks every page of the unfiltered catalog, newest first.
func (c *Client) FetchAll(ctx context.Context) ([]models.Product, error) {
	q := models.CatalogQuery{Sort: models.SortDefault, Page: 1, Limit: snapshotPageSize}

	var all []models.Product
	for {
		page, err := c.FetchPage(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		// the server may clamp the limit; trust its page count
		if q.Page >= page.Pagination.Pages || len(page.Items) == 0 {
			return all, nil
		}
		q.Page++
	}
}

// Refresh loads the whole catalog into snap. It reports false when a newer
// refresh was started meanwhile and this result was discarded.
func (c *Client) Refresh(ctx context.Context, snap *catalog.Snapshot) (bool, error) {
	ticket := snap.Begin()
	products, err := c.FetchAll(ctx)
	if err != nil {
		return false, err
	}
	applied := snap.Apply(ticket, products)
	if !applied {
		c.logger.Debug("Discarded stale catalog response", zap.Int("products", len(products)))
	}
	return applied, nil
}

// CreateOrder submits an order once. The idempotency key travels both as a
// header and in the body.
func (c *Client) CreateOrder(ctx context.Context, order *models.CreateOrderRequest) (*models.OrderReceipt, error) {
	ctx, span := util.StartSpan(ctx, "apiclient.CreateOrder")
	defer span.End()

	body, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if order.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", order.IdempotencyKey)
	}

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if env.Order == nil {
		return nil, errors.Wrap(models.ErrRemoteUnavailable, "response carries no order")
	}
	return env.Order, nil
}
