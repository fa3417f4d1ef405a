// Package cache keeps read-only merchant API responses in Redis.
//
// Only GET responses for configuration resources (accounts, account statuses,
// account tax, shipping settings) are cached. Order data changes with every
// lifecycle step and is never cached.
//
// Entries carry the response ETag so a later request can be sent with
// If-None-Match. A 304 Not Modified answer refreshes the stored entry instead
// of downloading the body again. Successful mutations drop every entry under
// the affected endpoint prefix.
//
//	manager := cache.NewManager(redisClient)
//	key := cache.CacheKey{MerchantID: 123, Endpoint: "123/accounts/456"}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then cache.ResponseToEntry + manager.Set
//	}
//
// Metrics exported:
//
//   - merchant_cache_hits_total
//   - merchant_cache_misses_total
//   - merchant_cache_size_bytes
//   - merchant_cache_304_responses_total
//   - merchant_cache_errors_total{operation}
package cache
