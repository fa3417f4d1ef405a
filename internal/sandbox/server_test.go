package sandbox

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/merchant-api-samples/pkg/content"
	"github.com/Sternrassler/merchant-api-samples/pkg/ratelimit"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, cfg RouterConfig) (*Store, http.Handler) {
	t.Helper()
	s := newTestStore(t)
	cfg.Logger = zerolog.Nop()
	return s, NewRouter(s, cfg)
}

func serve(h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, BasePath+path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	_, h := newTestRouter(t, RouterConfig{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_OrderFlow(t *testing.T) {
	_, h := newTestRouter(t, RouterConfig{})

	w := serve(h, http.MethodPost, "/123/testorders", `{"templateName":"template1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created content.CreateTestOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "TEST-1", created.OrderID)

	w = serve(h, http.MethodGet, "/123/orders?acknowledged=false&maxResults=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list content.OrdersListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Resources, 1)
	assert.Empty(t, list.NextPageToken)

	for _, want := range []string{content.ExecutionExecuted, content.ExecutionDuplicate} {
		w = serve(h, http.MethodPost, "/123/orders/TEST-1/acknowledge", `{"operationId":"0"}`, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp content.MutationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, want, resp.ExecutionStatus)
	}

	w = serve(h, http.MethodPost, "/123/testorders/TEST-1/advance", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(h, http.MethodGet, "/123/orders/TEST-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var order content.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.True(t, order.Acknowledged)
	assert.Equal(t, content.StatusPendingShipment, order.Status)
	assert.Equal(t, uint64(123), order.MerchantID)
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	_, h := newTestRouter(t, RouterConfig{})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantReason string
	}{
		{"unknown order", http.MethodGet, "/123/orders/nope", "", 404, ReasonNotFound},
		{"unknown action", http.MethodPost, "/123/orders/nope/explode", `{}`, 404, ReasonNotFound},
		{"bad merchant ID", http.MethodGet, "/abc/orders", "", 400, ReasonInvalid},
		{"malformed body", http.MethodPost, "/123/testorders", `{`, 400, ReasonInvalid},
		{"other account of sub-account", http.MethodGet, "/124/accounts/125", "", 403, ReasonNotMCA},
		{"sub-account list on non-MCA", http.MethodGet, "/124/accounttax", "", 403, ReasonNotMCA},
		{"batch on a merchant path", http.MethodPost, "/123/batch", `{}`, 404, ReasonNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, tt.method, tt.path, tt.body, nil)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var env errorEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, tt.wantStatus, env.Error.Code)
			require.Len(t, env.Error.Errors, 1)
			assert.Equal(t, tt.wantReason, env.Error.Errors[0].Reason)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestRouter_CustomBatch(t *testing.T) {
	_, h := newTestRouter(t, RouterConfig{})

	body := `{"entries":[
		{"batchId":1,"merchantId":"123","accountId":"124","method":"delete"},
		{"batchId":2,"merchantId":"123","accountId":"999","method":"delete"}]}`
	w := serve(h, http.MethodPost, "/accounts/batch", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp content.AccountsCustomBatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Nil(t, resp.Entries[0].Errors)
	require.NotNil(t, resp.Entries[1].Errors)
	assert.Equal(t, 404, resp.Entries[1].Errors.Code)
}

func TestRouter_ConditionalGet(t *testing.T) {
	_, h := newTestRouter(t, RouterConfig{CacheMaxAge: time.Minute})

	w := serve(h, http.MethodGet, "/123/accounts/123", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "private, max-age=60", w.Header().Get("Cache-Control"))

	w = serve(h, http.MethodGet, "/123/accounts/123", "", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	w = serve(h, http.MethodGet, "/123/accounts/123", "", http.Header{"If-None-Match": {`"stale"`}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_DeleteProduct(t *testing.T) {
	_, h := newTestRouter(t, RouterConfig{})

	w := serve(h, http.MethodDelete, "/123/products/online:en:US:mug-white", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(h, http.MethodDelete, "/123/products/online:en:US:mug-white", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Quota(t *testing.T) {
	_, h := newTestRouter(t, RouterConfig{Quota: QuotaConfig{Limit: 2, Window: time.Minute}})

	w := serve(h, http.MethodGet, "/123/accounts/123", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get(ratelimit.HeaderRemaining))
	assert.NotEmpty(t, w.Header().Get(ratelimit.HeaderReset))

	w = serve(h, http.MethodGet, "/123/accounts/123", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get(ratelimit.HeaderRemaining))

	w = serve(h, http.MethodGet, "/123/accounts/123", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get(ratelimit.HeaderRetryAfter))
}
