// Exposes all of the REST APIs related to SSE in Smeta.

package sse

import (
	"Smeta/internal/entity"
	"Smeta/internal/errors"
	"Smeta/pkg/log"
	"Smeta/pkg/middlewares"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Registers all of the REST API handlers related to internal package sse onto the gin server.
func APIHandlers(router *gin.Engine, service Service, authWithToken gin.HandlerFunc, logger log.Logger) {
	sseGroup := router.Group("/api/sse", authWithToken)
	{
		sseGroup.GET("/events", middlewares.SSEMiddleware(), streamHandler(service, logger))
		sseGroup.GET("/stats", statsHandler(service, logger))
		sseGroup.POST("/notify", notifyHandler(service, logger))
	}
}

// streamHandler returns the long-lived event stream handler.
// Lifecycle per connection: identity already resolved by the auth middleware,
// register a fresh queue, confirm the handshake, then drain events to the
// client with keepalives when idle until the client goes away or the
// connection gets evicted.
func streamHandler(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		v, ok := gctx.Get("UserID")
		if !ok {
			gctx.Status(http.StatusInternalServerError)
			return
		}
		userID, ok := v.(uint64)
		if !ok {
			// Type assertion error
			logger.WithCtx(gctx).Error().Msg("Type assertion error on UserID in streamHandler")
			gctx.Status(http.StatusInternalServerError)
			return
		}

		// Unique id for this connection, never reused
		connID := uuid.NewString()
		queue := service.Connect(gctx, userID, connID)
		// Cleanup runs on every exit path so the registry can never point at
		// a stream which is no longer draining its queue.
		defer service.Disconnect(gctx, userID, connID)
		logger.WithCtx(gctx).Info().Msgf("Starting SSE stream: user_id=%d, connection_id=%s", userID, connID)

		// Handshake confirmation before entering the drain loop
		if err := writeEvent(gctx.Writer, entity.NewEvent(entity.EventConnected, map[string]interface{}{
			"message": "SSE connection established",
		})); err != nil {
			return
		}
		gctx.Writer.Flush()

		keepAlive := service.KeepAliveInterval()
		gctx.Stream(func(w io.Writer) bool {
			select {
			case event, open := <-queue:
				if !open {
					// Evicted as a slow consumer or server shutting down
					return false
				}
				return writeEvent(w, event) == nil
			case <-time.After(keepAlive):
				// Nothing pending, emit a keepalive so intermediary proxies
				// don't cut the idle stream and the client can detect a dead
				// connection
				return writeEvent(w, entity.NewEvent(entity.EventKeepAlive, nil)) == nil
			case <-gctx.Request.Context().Done():
				// Client went away
				return false
			}
		})
		logger.WithCtx(gctx).Info().Msgf("SSE stream closed: user_id=%d, connection_id=%s", userID, connID)
	}
}

// writeEvent frames one event per the text/event-stream convention:
// a "data: " line carrying the JSON envelope, terminated by a blank line.
func writeEvent(w io.Writer, event entity.Event) error {
	payload, mrsherr := json.Marshal(event)
	if mrsherr != nil {
		return mrsherr
	}
	_, wrterr := fmt.Fprintf(w, "data: %s\n\n", payload)
	return wrterr
}

// statsHandler returns a handler serving current registry statistics.
// requires auth to access.
func statsHandler(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		gctx.JSON(http.StatusOK, service.Stats(gctx))
	}
}

// notifyHandler returns a handler for manually originated events, useful for
// announcements and for debugging delivery without touching domain data.
// requires auth to access.
func notifyHandler(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var request entity.NotifyRequest
		if binderr := gctx.ShouldBindJSON(&request); binderr != nil {
			gctx.JSON(http.StatusBadRequest, errors.BadRequest("Invalid request body"))
			return
		}
		if err := service.Notify(gctx, request); err != nil {
			// Error occured, might be validation or server error
			err, ok := err.(errors.ErrorResponse)
			if !ok {
				// Type assertion error
				gctx.JSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.JSON(err.Status, err)
			return
		}
		// Dispatch is asynchronous, accepted is all there is to report
		gctx.Status(http.StatusAccepted)
	}
}
