package cache

import (
	"time"

	"github.com/jellydator/ttlcache/v2"
)

// NewMemory returns an in-process cache used when Redis is disabled.
// Entries expire after ttl unless a per-entry ttl is given on write.
func NewMemory(ttl time.Duration) *ttlcache.Cache {
	c := ttlcache.NewCache()
	_ = c.SetTTL(ttl)
	c.SkipTTLExtensionOnHit(true)
	return c
}
