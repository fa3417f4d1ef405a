package sandbox

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/merchant-api-samples/pkg/content"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// BasePath is where the API is mounted, matching client.DefaultBaseURL.
const BasePath = "/content/v2.1"

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Logger zerolog.Logger

	// Quota enables X-RateLimit-* headers and 429 answers when Limit > 0.
	Quota QuotaConfig

	// CacheMaxAge is announced on GET responses of account resources.
	CacheMaxAge time.Duration
}

// NewRouter builds the gin engine serving store.
func NewRouter(store *Store, cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware("merchant-sandbox"), requestLogger(cfg.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	h := &handlers{store: store, cacheMaxAge: cfg.CacheMaxAge}
	api := router.Group(BasePath)
	if cfg.Quota.Limit > 0 {
		api.Use(newQuota(cfg.Quota).middleware())
	}

	// accounts/batch shares its first segment with the merchant-scoped routes,
	// so it is served by the /:merchantId/batch route below.
	api.POST("/:merchantId/batch", h.customBatch)

	m := api.Group("/:merchantId")
	m.GET("/orders", h.listOrders)
	m.GET("/orders/:orderId", h.getOrder)
	m.POST("/orders/:orderId/:action", h.mutateOrder)
	m.GET("/ordersbymerchantid/:merchantOrderId", h.getOrderByMerchantOrderID)
	m.POST("/testorders", h.createTestOrder)
	m.POST("/testorders/:orderId/advance", h.advanceTestOrder)

	m.GET("/accounts/:accountId", h.getAccount)
	m.PUT("/accounts/:accountId", h.updateAccount)
	m.GET("/accountstatuses", h.listAccountStatuses)
	m.GET("/accountstatuses/:accountId", h.getAccountStatus)
	m.GET("/accounttax", h.listAccountTax)
	m.GET("/accounttax/:accountId", h.getAccountTax)
	m.GET("/shippingsettings", h.listShippingSettings)
	m.GET("/shippingsettings/:accountId", h.getShippingSettings)
	m.DELETE("/products/:productId", h.deleteProduct)

	return router
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status_code", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Sandbox request")
	}
}

type handlers struct {
	store       *Store
	cacheMaxAge time.Duration
}

type listResponse[T any] struct {
	Resources     []T    `json:"resources"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

func respondError(c *gin.Context, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = &Error{Status: http.StatusInternalServerError, Reason: "backendError", Message: err.Error()}
	}
	c.AbortWithStatusJSON(apiErr.Status, apiErr.envelope())
}

// respondCacheable answers a GET with an ETag and honours If-None-Match.
func (h *handlers) respondCacheable(c *gin.Context, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		respondError(c, err)
		return
	}
	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`

	c.Header("ETag", etag)
	if h.cacheMaxAge > 0 {
		c.Header("Cache-Control", "private, max-age="+strconv.Itoa(int(h.cacheMaxAge.Seconds())))
	}
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, invalid("Invalid %s %q.", name, c.Param(name)))
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (string, int, bool) {
	maxResults := 0
	if raw := c.Query("maxResults"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, invalid("Invalid maxResults %q.", raw))
			return "", 0, false
		}
		maxResults = n
	}
	return c.Query("pageToken"), maxResults, true
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, invalid("Malformed request body: %v", err))
		return false
	}
	return true
}

func (h *handlers) listOrders(c *gin.Context) {
	merchantID, ok := paramID(c, "merchantId")
	if !ok {
		return
	}
	token, maxResults, ok := pageParams(c)
	if !ok {
		return
	}

	var filter OrderFilter
	if raw := c.Query("acknowledged"); raw != "" {
		ack, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, invalid("Invalid acknowledged %q.", raw))
			return
		}
		filter.Acknowledged = &ack
	}
	filter.Statuses = c.QueryArray("statuses")

	orders, next, err := h.store.ListOrders(merchantID, filter, token, maxResults)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[content.Order]{Resources: orders, NextPageToken: next})
}

func (h *handlers) getOrder(c *gin.Context) {
	merchantID, ok := paramID(c, "merchantId")
	if !ok {
		return
	}
	order, err := h.store.GetOrder(merchantID, c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) getOrderByMerchantOrderID(c *gin.Context) {
	merchantID, ok := paramID(c, "merchantId")
	if !ok {
		return
	}
	order, err := h.store.GetOrderByMerchantOrderID(merchantID, c.Param("merchantOrderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, content.GetByMerchantOrderIDResponse{Order: order})
}

func (h *handlers) createTestOrder(c *gin.Context) {
	merchantID, ok := paramID(c, "merchantId")
	if !ok {
		return
	}
	var req content.CreateTestOrderRequest
	if !bind(c, &req) {
		return
	}
	id, err := h.store.CreateTestOrder(merchantID, req.TemplateName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, content.CreateTestOrderResponse{OrderID: id})
}

func (h *handlers) advanceTestOrder(c *gin.Context) {
	merchantID, ok := paramID(c, "merchantId")
	if !ok {
		return
	}
	if err := h.store.AdvanceTestOrder(merchantID, c.Param("orderId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// mutateOrder dispatches POST /orders/{orderId}/{action}.
func (h *handlers) mutateOrder(c *gin.Context) {
	merchantID, ok := paramID(c, "merchantId")
	if !ok {
		return
	}
	orderID := c.Param("orderId")

	var (
		status string
		err    error
	)
	switch action := c.Param("action"); action {
	case "acknowledge":
		var req content.AcknowledgeRequest
		if !bind(c, &req) {
			return
		}
		status, err = h.store.Acknowledge(merchantID, orderID, &req)
	case "updateMerchantOrderId":
		var req content.UpdateMerchantOrderIDRequest
		if !bind(c, &req) {
			return
		}
		status, err = h.store.UpdateMerchantOrderID(merchantID, orderID, &req)
	case "cancelLineItem":
		var req content.CancelLineItemRequest
		if !bind(c, &req) {
			return
		}
		status, err = h.store.CancelLineItem(merchantID, orderID, &req)
	case "shipLineItems":
		var req content.ShipLineItemsRequest
		if !bind(c, &req) {
			return
		}
		status, err = h.store.ShipLineItems(merchantID, orderID, &req)
	case "updateShipment":
		var req content.UpdateShipmentRequest
		if !bind(c, &req) {
			return
		}
		status, err = h.store.UpdateShipment(merchantID, orderID, &req)
	case "returnRefundLineItem":
		var req content.ReturnRefundLineItemRequest
		if !bind(c, &req) {
			return
		}
		status, err = h.store.ReturnRefundLineItem(merchantID, orderID, &req)
	default:
		err = notFound("Unknown order action %q.", action)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, content.MutationResponse{ExecutionStatus: status})
}

func (h *handlers) getAccount(c *gin.Context) {
	merchantID, ok := paramID(c, "merchantId")
	if !ok {
		return
	}
	accountID, ok := paramID(c, "accountId")
	if !ok {
		return
	}
	account, err := h.store.GetAccount(merchantID, accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondCacheable(c, account)
}

func (h *handlers) updateAccount(c *gin.Context) {
	merchantID, ok := paramID(c, "merchantId")
	if !ok {
		return
	}
	accountID, ok := paramID(c, "accountId")
	if !ok {
		return
	}
	var req content.Account
	if !bind(c, &req) {
		return
	}
	account, err := h.store.UpdateAccount(merchantID, accountID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *handlers) customBatch(c *gin.Context) {
	if c.Param("merchantId") != "accounts" {
		respondError(c, notFound("Unknown resource %q.", strings.TrimPrefix(c.Request.URL.Path, BasePath)))
		return
	}
	var req content.AccountsCustomBatchRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.store.CustomBatch(&req))
}

// getResource serves the per-account GET endpoints.
func getResource[T any](h *handlers, get func(merchantID, accountID uint64) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		merchantID, ok := paramID(c, "merchantId")
		if !ok {
			return
		}
		accountID, ok := paramID(c, "accountId")
		if !ok {
			return
		}
		v, err := get(merchantID, accountID)
		if err != nil {
			respondError(c, err)
			return
		}
		h.respondCacheable(c, v)
	}
}

// listResource serves the MCA sub-account listings.
func listResource[T any](h *handlers, list func(merchantID uint64, token string, maxResults int) ([]T, string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		merchantID, ok := paramID(c, "merchantId")
		if !ok {
			return
		}
		token, maxResults, ok := pageParams(c)
		if !ok {
			return
		}
		items, next, err := list(merchantID, token, maxResults)
		if err != nil {
			respondError(c, err)
			return
		}
		h.respondCacheable(c, listResponse[T]{Resources: items, NextPageToken: next})
	}
}

func (h *handlers) getAccountStatus(c *gin.Context) {
	getResource(h, h.store.GetAccountStatus)(c)
}

func (h *handlers) listAccountStatuses(c *gin.Context) {
	listResource(h, h.store.ListAccountStatuses)(c)
}

func (h *handlers) getAccountTax(c *gin.Context) {
	getResource(h, h.store.GetAccountTax)(c)
}

func (h *handlers) listAccountTax(c *gin.Context) {
	listResource(h, h.store.ListAccountTax)(c)
}

func (h *handlers) getShippingSettings(c *gin.Context) {
	getResource(h, h.store.GetShippingSettings)(c)
}

func (h *handlers) listShippingSettings(c *gin.Context) {
	listResource(h, h.store.ListShippingSettings)(c)
}

func (h *handlers) deleteProduct(c *gin.Context) {
	merchantID, ok := paramID(c, "merchantId")
	if !ok {
		return
	}
	if err := h.store.DeleteProduct(merchantID, c.Param("productId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
