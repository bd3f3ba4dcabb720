package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Checker reports whether a dependency is usable.
type Checker func(ctx context.Context) error

// Options tunes the HTTP surface.
type Options struct {
	AdminToken      string
	DefaultPageSize int
	MaxPageSize     int
	Checks          map[string]Checker
}

// Handler contains HTTP handlers
type Handler struct {
	catalog *service.CatalogService
	orders  *service.OrderService
	opts    Options
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(catalogService *service.CatalogService, orderService *service.OrderService, opts Options) *Handler {
	return &Handler{
		catalog: catalogService,
		orders:  orderService,
		opts:    opts,
		logger:  util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := h.requireAdmin()

	products := router.Group("/api/products")
	{
		products.GET("", h.listProducts)
		products.GET("/categories", h.listCategories)
		products.GET("/:id", h.getProduct)
		products.POST("", admin, h.createProduct)
		products.PUT("/:id", admin, h.updateProduct)
		products.DELETE("/:id", admin, h.deleteProduct)
		products.PATCH("/:id/stock", admin, h.toggleStock)
	}

	orders := router.Group("/api/orders")
	{
		orders.POST("", h.createOrder)
		orders.GET("", admin, h.listOrders)
		orders.GET("/:id", admin, h.getOrder)
		orders.PUT("/:id", admin, h.updateOrderStatus)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports not ready while any dependency check fails
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.opts.Checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	q, err := catalog.ParseQuery(c.Request.URL.Query(), h.opts.DefaultPageSize, h.opts.MaxPageSize)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.catalog.Query(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(result.Items),
		"data":       result.Items,
		"pagination": result.Pagination,
	})
}

func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.catalog.Categories(),
	})
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

func (h *Handler) createProduct(c *gin.Context) {
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, models.Invalidf("Invalid request body"))
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": product})
}

func (h *Handler) updateProduct(c *gin.Context) {
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, models.Invalidf("Invalid request body"))
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted"})
}

func (h *Handler) toggleStock(c *gin.Context) {
	product, err := h.catalog.ToggleStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, models.Invalidf("Invalid request body"))
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	res, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	status, message := http.StatusCreated, "Order created successfully"
	if res.Duplicate {
		status, message = http.StatusOK, "Order already received"
	}
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"order":   res.Order.Receipt(),
	})
}

func (h *Handler) listOrders(c *gin.Context) {
	q := service.ListOrdersQuery{
		Status: models.OrderStatus(c.Query("status")),
		Page:   1,
		Limit:  service.DefaultOrderPageSize,
	}
	var err error
	if raw := c.Query("page"); raw != "" {
		if q.Page, err = strconv.Atoi(raw); err != nil {
			h.respondError(c, models.Invalidf("page must be an integer"))
			return
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil {
			h.respondError(c, models.Invalidf("limit must be an integer"))
			return
		}
	}
	if h.opts.MaxPageSize > 0 && q.Limit > h.opts.MaxPageSize {
		q.Limit = h.opts.MaxPageSize
	}

	page, err := h.orders.ListOrders(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"orders":     page.Orders,
		"pagination": page.Pagination,
	})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, models.Invalidf("Invalid request body"))
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// respondError maps the error taxonomy onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, models.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrInvalidTransition):
		status, message = http.StatusConflict, err.Error()
	default:
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// requireAdmin accepts only "Authorization: Bearer <AdminToken>". With no
// token configured every admin request is refused.
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || h.opts.AdminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.opts.AdminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Not authorized",
			})
			return
		}
		c.Next()
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
