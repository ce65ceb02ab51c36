package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey   = "response_meta"
	responseStartKey  = "response_start"
	poolCacheKey      = "pool_cache_hit"
	processingTimeKey = "processing_time_ms"
)

// WithResponseMeta initialises per-request response metadata and records when the request
// started. ExtractMeta turns that into processing_time_ms while the handler builds its body.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetPoolCacheHit records whether the tutor pool came from Redis.
func SetPoolCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[poolCacheKey] = hit
}

// ExtractMeta returns the metadata collected so far, or nil when none was initialised.
// Handlers call it right before writing, so the elapsed time is stamped at that point.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := currentMeta(c)
	if meta == nil {
		return nil
	}
	if start, exists := c.Get(responseStartKey); exists {
		if began, ok := start.(time.Time); ok {
			meta[processingTimeKey] = time.Since(began).Milliseconds()
		}
	}
	return meta
}

func currentMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta := currentMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	if c != nil {
		c.Set(responseMetaKey, meta)
	}
	return meta
}
