package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studymate-api/pkg/middleware/requestid"
)

const (
	responseMetaKey  = "response_meta"
	responseStartKey = "response_started"
)

// WithResponseMeta initialises response metadata storage on the request
// context and stamps the request id on it.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := map[string]interface{}{}
		if id := requestid.Value(c); id != "" {
			meta["request_id"] = id
		}
		c.Set(responseMetaKey, meta)
		c.Set(responseStartKey, time.Now())
		c.Next()
	}
}

// ExtractMeta returns the metadata map stored on the context with the
// elapsed processing time filled in.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	if started, ok := c.Get(responseStartKey); ok {
		if t, ok := started.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(t).Milliseconds()
		}
	}
	return meta
}
