// The main file of Smeta's real-time notification service.

package main

import (
	"Smeta/internal/auth"
	"Smeta/internal/config"
	"Smeta/internal/sse"
	"Smeta/internal/user"
	"Smeta/pkg/cleanup"
	"Smeta/pkg/db"
	"Smeta/pkg/globalcontext"
	"Smeta/pkg/log"
	"Smeta/pkg/logger"
	"Smeta/pkg/middlewares"
	"Smeta/pkg/validations"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/gin-gonic/gin"
)

var (
	// Indicates the current version of Smeta.
	Version = "1.0.0"
	// Address and Port to be used by gin.
	srvaddr, srvport string
)

func init() {
	if len(os.Getenv("ENV")) == 0 {
		// Local development convenience, deployments supply real env vars
		config.LoadDevConfig()
	}
	logger.Setup(os.Getenv("ENV"))

	logger.Logger.Info().Msg(fmt.Sprintf("Welcome to Smeta: v%s", Version))
	logger.Logger.Info().Msg(fmt.Sprintf("Smeta Environment: %s", os.Getenv("ENV")))

	// Fetching addr and port depending upon env flag.
	srvaddr, srvport = os.Getenv("SRV_ADDR"), os.Getenv("SRV_PORT")
	// This is the preferred mode used by gin server in DEV environment.
	if os.Getenv("ENV") == "DEV" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

func main() {
	ctx := context.Background()
	applogger := log.New(Version)

	// Connecting to the DB holding identity, role and token data.
	dbConnWrp, dberr := db.NewDbConnection(ctx, applogger)
	if dberr != nil {
		applogger.Fatal().Err(dberr).Msg("Couldn't initialize the Redis client.")
	}
	// Sending a PING request to DB for connection status check.
	if cnterr := dbConnWrp.CheckDbConnection(ctx, applogger); cnterr != nil {
		applogger.Fatal().Err(cnterr).Msg("Redis client couldn't PING the redis-server.")
	}

	// Initializing validator used by the notify API.
	govalidator.SetFieldsRequiredByDefault(true)
	validations.RegisterCustomValidations(ctx, applogger)

	// Repositories needed by the notification layer to work.
	authRepo := auth.NewRepository(dbConnWrp)
	userRepo := user.NewRepository(dbConnWrp)
	sseRepo := sse.NewRepository(dbConnWrp)

	// Notification core: registry -> publisher -> bridge, created once here
	// and passed around as explicit dependencies.
	registry := sse.NewRegistry(applogger)
	publisher := sse.NewPublisher(registry, userRepo, applogger)
	bridge := sse.NewBridge(publisher, applogger)
	sseService := sse.NewService(registry, bridge, sseRepo, keepAliveFromEnv(), applogger)

	// Middleware resolving bearer credentials (header or query parameter) to identities.
	authWithToken := auth.AuthMiddleware(applogger, authRepo, userRepo, os.Getenv("ACCESS_SECRET"))

	// Initializing the gin server.
	server := gin.New()

	// Forcing gin to use custom Logger instead of the default one.
	server.Use(log.LoggerGinExtension(applogger))
	server.Use(gin.Recovery())
	server.Use(middlewares.CORSMiddleware(os.Getenv("CORS_ORIGIN")))
	server.Use(globalcontext.UniqueIDMiddleware(applogger))
	server.Use(middlewares.CorrelationMiddleware(applogger))

	// Running Router() which routes all of the REST API groups and paths.
	Router(server, sseService, authWithToken, applogger)

	// Running the server with defined addr and port.
	srv := &http.Server{
		Addr:    srvaddr + ":" + srvport,
		Handler: server,
	}

	// ListenAndServe is a blocking operation, putting it a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applogger.Fatal().Err(err).Msg("Error in ListenAndServe()")
		}
	}()

	// Graceful shutdown of Smeta server triggered due to system interruptions.
	wait := cleanup.GracefulShutdown(ctx, applogger, 5*time.Second, map[string]cleanup.Operation{
		"SSE-bridge": func(ctx context.Context) error {
			bridge.Close()
			return nil
		},
		"SSE-registry": func(ctx context.Context) error {
			registry.Close()
			return nil
		},
		"Redis-server": func(ctx context.Context) error {
			return dbConnWrp.CloseDbConnection(ctx)
		},
		"Gin": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	<-wait
}

// keepAliveFromEnv reads the idle keepalive interval for streams,
// falling back to the service default when unset.
func keepAliveFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("SSE_KEEPALIVE_SECONDS"))
	if raw == "" {
		return 0
	}
	secs, prserr := strconv.Atoi(raw)
	if prserr != nil || secs <= 0 {
		logger.Logger.Warn().Msg("Couldn't parse ENV: SSE_KEEPALIVE_SECONDS, using default")
		return 0
	}
	return time.Duration(secs) * time.Second
}
