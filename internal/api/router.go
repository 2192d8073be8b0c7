package api

import (
	"file_portal/internal/config"     // Configuration
	"file_portal/internal/metrics"    // Prometheus handler
	"file_portal/internal/middleware" // Custom middleware
	"file_portal/internal/storage"    // Blob storage
	"net/http"                        // HTTP status codes

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client, nil when disabled
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps are the collaborators the handlers are built from
type Deps struct {
	DB      *gorm.DB              // Relational store
	Storage storage.ObjectStorage // Blob store
	Redis   *redis.Client         // Optional cache and rate limit backend
	Config  *config.Config        // Runtime settings
}

// RegisterRoutes mounts every endpoint on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	r.Use(middleware.Metrics(), middleware.RequestScheme(cfg.TrustedProxies))

	r.GET("/healthz", HealthHandler(d.DB))          // Liveness with a database ping
	r.GET("/metrics", gin.WrapH(metrics.Handler())) // Prometheus scrape endpoint

	apiGroup := r.Group("/api")

	// Open routes, rate limited per client IP
	open := apiGroup.Group("", middleware.RateLimit(d.Redis, cfg.RateLimitMax, cfg.RateLimitWin))
	open.POST("/register", RegisterHandler(d.DB))                // Registration endpoint
	open.POST("/token", TokenObtainHandler(d.DB, cfg))          // JWT pair endpoint
	open.POST("/token/refresh", TokenRefreshHandler(d.DB, cfg)) // JWT refresh endpoint
	open.POST("/login", LoginHandler(d.DB))                      // Opaque token endpoint

	// Everything else requires an authenticated caller
	authed := apiGroup.Group("", middleware.AuthMiddleware(d.DB, cfg.JWTSecret))
	authed.GET("/profile", GetProfileHandler(d.DB))
	authed.PATCH("/profile", UpdateProfileHandler(d.DB, d.Redis))

	authed.GET("/files", ListFilesHandler(d.DB))
	authed.POST("/files", UploadFileHandler(d.DB, d.Storage, d.Redis, cfg.MaxUploadSize))
	authed.GET("/files/:id", GetFileHandler(d.DB))
	authed.PUT("/files/:id", UpdateFileHandler(d.DB, d.Storage, d.Redis, cfg.MaxUploadSize, false))
	authed.PATCH("/files/:id", UpdateFileHandler(d.DB, d.Storage, d.Redis, cfg.MaxUploadSize, true))
	authed.DELETE("/files/:id", DeleteFileHandler(d.DB, d.Storage, d.Redis))
	authed.GET("/download/:file_id", DownloadHandler(d.DB, d.Storage))

	authed.GET("/addresses", ListAddressesHandler(d.DB))
	authed.POST("/addresses", CreateAddressHandler(d.DB))
	authed.GET("/addresses/:id", GetAddressHandler(d.DB))
	authed.PUT("/addresses/:id", UpdateAddressHandler(d.DB, false))
	authed.PATCH("/addresses/:id", UpdateAddressHandler(d.DB, true))
	authed.DELETE("/addresses/:id", DeleteAddressHandler(d.DB))

	authed.GET("/phone-numbers", ListPhoneNumbersHandler(d.DB))
	authed.POST("/phone-numbers", CreatePhoneNumberHandler(d.DB))
	authed.GET("/phone-numbers/:id", GetPhoneNumberHandler(d.DB))
	authed.PUT("/phone-numbers/:id", UpdatePhoneNumberHandler(d.DB, false))
	authed.PATCH("/phone-numbers/:id", UpdatePhoneNumberHandler(d.DB, true))
	authed.DELETE("/phone-numbers/:id", DeletePhoneNumberHandler(d.DB))

	// Stats are global; STATS_ADMIN_ONLY narrows them to admins
	stats := StatsHandler(d.DB, d.Redis, cfg.StatsCacheTTL)
	if cfg.StatsAdminOnly {
		authed.GET("/stats", middleware.AdminOnlyMiddleware(d.DB), stats)
	} else {
		authed.GET("/stats", stats)
	}

	admin := authed.Group("/admin", middleware.AdminOnlyMiddleware(d.DB))
	admin.GET("/users", ListUsersHandler(d.DB)) // Paginated users with upload counts
}

// HealthHandler reports whether the database answers
func HealthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
