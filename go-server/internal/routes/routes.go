package route

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	config "github.com/linkzip/linkzip/go-server/config"
	"github.com/linkzip/linkzip/go-server/internal/handler"
	"github.com/linkzip/linkzip/go-server/internal/middleware"
	"github.com/linkzip/linkzip/go-server/internal/observability"
	"github.com/linkzip/linkzip/go-server/internal/qr"
	"github.com/linkzip/linkzip/go-server/internal/repository"
	"github.com/linkzip/linkzip/go-server/internal/service"
)

// redirect bursts well above normal human clicking get shed per IP
const (
	redirectRateLimit  = 60
	redirectRateWindow = time.Minute
)

func SetupRouter(cfg *config.Config, redisClient *redis.Client, pgClient *pgxpool.Pool, obs *observability.Observability) *gin.Engine {
	linkRepo := repository.NewPostgresLinkRepository(pgClient, redisClient)
	clickRepo := repository.NewPostgresClickRepository(pgClient)
	userRepo := repository.NewUserRepository(pgClient)

	linkService := service.NewLinkService(linkRepo, clickRepo, qr.NewPNGRenderer(), cfg.BaseURL)
	redirectService := service.NewRedirectService(linkRepo, clickRepo)
	authService := service.NewAuthService(userRepo)

	linkHandler := handler.NewLinkHandler(linkService)
	redirectHandler := handler.NewRedirectHandler(redirectService)
	authHandler := handler.NewAuthHandler(authService)

	r := gin.Default()
	r.Use(middleware.MetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(obs.PrometheusHandler))

	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)

	api := r.Group("/api", middleware.AuthMiddleware())
	{
		api.POST("/links", linkHandler.Create)
		api.GET("/links", linkHandler.List)
		api.GET("/links/:code/stats", linkHandler.Stats)
		api.PUT("/links/:code", linkHandler.Update)
		api.DELETE("/links/:code", linkHandler.Delete)
		// :code carries a link ID on this route
		api.GET("/links/:code/qr", linkHandler.DownloadQR)
	}

	// public redirect path; static prefixes above win over the wildcard
	rateLimiter := middleware.NewRateLimiter(redirectRateLimit, redirectRateWindow)
	r.GET("/:code", rateLimiter.Middleware(), redirectHandler.Redirect)

	return r
}
