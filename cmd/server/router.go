// List of all REST API endpoint groups being served by Smeta can be found here.

package main

import (
	"Smeta/internal/sse"
	"Smeta/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Router(server *gin.Engine, sseService sse.Service, authWithToken gin.HandlerFunc, logger log.Logger) {
	// This is the route to default path
	server.GET("/", func(gctx *gin.Context) {
		gctx.String(http.StatusOK, "Welcome to Smeta!")
	})
	// Real-time notification endpoints
	sse.APIHandlers(server, sseService, authWithToken, logger)
}
