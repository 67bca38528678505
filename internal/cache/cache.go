package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Cache defines the interface for caching search responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// SearchKey generates a cache key for one category search. The limit is
// part of the identity: a result set fetched with a smaller limit must
// never be served to a request that asked for more.
func SearchKey(query, category string, limit int) string {
	hash := sha256.Sum256([]byte(category + "\x00" + query + "\x00" + strconv.Itoa(limit)))
	return "veridex:search:v1:" + hex.EncodeToString(hash[:])
}
