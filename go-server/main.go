package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/linkzip/linkzip/go-server/config"
	db "github.com/linkzip/linkzip/go-server/internal/database"
	"github.com/linkzip/linkzip/go-server/internal/metrics"
	"github.com/linkzip/linkzip/go-server/internal/observability"
	route "github.com/linkzip/linkzip/go-server/internal/routes"
	"github.com/linkzip/linkzip/go-server/internal/token"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()

	zap.ReplaceGlobals(logger)

	secrets, err := config.LoadConfig()
	if err != nil {
		logger.Fatal(
			"error loading configuration",
			zap.Error(err),
		)
	}

	token.Configure([]byte(secrets.JWTSecret))

	obs := observability.Setup("linkzip", "production")
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			logger.Warn("observability shutdown", zap.Error(err))
		}
	}()

	redisClient, err := db.NewRedisClient(secrets)
	if err != nil {
		logger.Fatal("redis failed to initialize",
			zap.Error(err),
		)
	}
	logger.Info("redis connection established")

	pgClient, err := db.NewPostgresClient(secrets)
	if err != nil {
		logger.Fatal("postgres failed to initialize",
			zap.Error(err),
		)
	}
	logger.Info("postgres connection established")

	if err := db.EnsureSchema(context.Background(), pgClient); err != nil {
		logger.Fatal("schema bootstrap failed", zap.Error(err))
	}

	metrics.StartSystemMetricsCollection()

	r := route.SetupRouter(secrets, redisClient, pgClient, obs)
	logger.Info("starting server", zap.String("addr", secrets.ListenAddr))
	if err := r.Run(secrets.ListenAddr); err != nil {
		logger.Fatal("server failed to start", zap.Error(err))
	}
}
