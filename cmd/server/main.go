package main

import (
	"context"                      // Context for startup checks and shutdown
	"errors"                       // Error inspection
	"file_portal/internal/api"     // Custom package for API handlers
	"file_portal/internal/config"  // Custom package for configuration
	"file_portal/internal/db"      // Database connection and migration
	"file_portal/internal/storage" // Blob storage backends
	"net/http"                     // HTTP server
	"os"                           // Signals
	"os/signal"                    // Signal notification
	"syscall"                      // SIGTERM
	"time"                         // Shutdown timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Connect to the database selected by DB_DRIVER and bring the schema up to date
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg.Storage) // Blob backend selected by STORAGE_BACKEND
	if err != nil {
		logrus.Fatalf("failed to init storage: %v", err)
	}

	// Redis is optional; without it stats are uncached and auth routes unthrottled
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default() // Gin router instance
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}
	r.MaxMultipartMemory = 8 << 20 // Larger parts spill to temp files
	api.RegisterRoutes(r, api.Deps{DB: gdb, Storage: store, Redis: redisClient, Config: cfg})

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":    cfg.AppPort,         // Listen port
			"db":      cfg.DBDriver,        // Database driver
			"storage": cfg.Storage.Backend, // Blob backend
			"redis":   redisClient != nil,  // Cache enabled
		}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for a termination signal and drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("shutdown failed: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logrus.Info("Server stopped")
}

// setupLogger configures logrus from IS_PROD and LOG_LEVEL
func setupLogger(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
