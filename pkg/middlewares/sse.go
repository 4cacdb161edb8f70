package middlewares

import (
	"github.com/gin-gonic/gin"
)

// This middleware is used to add headers to response for Server-Side-Events (SSE) to work properly.
// X-Accel-Buffering disables response buffering on nginx, without it events
// would reach the browser in delayed batches instead of as they happen.
func SSEMiddleware() gin.HandlerFunc {
	return func(gctx *gin.Context) {
		gctx.Writer.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		gctx.Writer.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		gctx.Writer.Header().Set("Connection", "keep-alive")
		gctx.Writer.Header().Set("X-Accel-Buffering", "no")

		// EventSource connects cross-origin with credentials, so the exact
		// calling origin has to be echoed back instead of a wildcard.
		origin := gctx.GetHeader("Origin")
		if origin == "" {
			origin = "*"
		}
		gctx.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		gctx.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		gctx.Writer.Header().Set("Access-Control-Allow-Headers", "Cache-Control, Content-Type, Authorization")
		gctx.Next()
	}
}
