package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key written by this package.
const KeyPrefix = "content"

// CacheKey identifies a cached merchant API response.
type CacheKey struct {
	// Endpoint is the request path relative to the API base, e.g. "123/accounts/456".
	Endpoint string

	// QueryParams are the request query parameters.
	QueryParams url.Values

	// MerchantID is the merchant whose credentials issued the request.
	MerchantID uint64
}

// String builds a deterministic key.
//
//	content:123/accounts/456:maxResults=50:merchant=123
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		names := make([]string, 0, len(k.QueryParams))
		for name := range k.QueryParams {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.QueryParams[name]...)
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(values, ",")))
		}
	}

	if k.MerchantID > 0 {
		parts = append(parts, fmt.Sprintf("merchant=%d", k.MerchantID))
	}

	return strings.Join(parts, ":")
}

// EndpointPattern returns a Redis MATCH pattern covering every cached entry
// whose endpoint starts with the given path, regardless of query or merchant.
func EndpointPattern(endpoint string) string {
	endpoint = strings.Trim(endpoint, "/")
	if endpoint == "" {
		return KeyPrefix + ":*"
	}
	return KeyPrefix + ":" + endpoint + "*"
}
