package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// RevisionHeader carries the store revision a response was produced from.
const RevisionHeader = "X-Store-Revision"

const (
	responseMetaKey = "response_meta"
	revisionKey     = "revision"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta["processing_time_ms"]; !exists {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
}

// SetRevision records the store revision in the response header and metadata. It
// must run before the body is written.
func SetRevision(c *gin.Context, revision uint64) {
	c.Header(RevisionHeader, strconv.FormatUint(revision, 10))
	meta := ensureMeta(c)
	meta[revisionKey] = revision
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
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
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
