package api

import (
	"file_portal/internal/domain" // Importing domain models
	"file_portal/internal/utils"  // Utility functions
	"net/http"                    // HTTP status codes
	"time"                        // Cache TTL

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

// statsCacheKey holds the cached /stats body; file writes and username changes delete it
const statsCacheKey = "portal:stats"

// TypeCount is one row of files grouped by type
type TypeCount struct {
	FileType string `json:"file_type"` // File type
	Count    int64  `json:"count"`     // Number of files
}

// UserCount is one row of files grouped by owner
type UserCount struct {
	Username string `json:"user__username" gorm:"column:username"` // Owner's username, keyed as existing clients expect
	Count    int64  `json:"count"`                                  // Number of files
}

// StatsResponse is the body of GET /stats
type StatsResponse struct {
	TotalFiles  int64       `json:"total_files"`   // Files across all users
	FilesByType []TypeCount `json:"files_by_type"` // Counts per file type
	FilesByUser []UserCount `json:"files_by_user"` // Counts per owner
}

// computeStats aggregates every uploaded file regardless of owner
func computeStats(db *gorm.DB) (StatsResponse, error) {
	stats := StatsResponse{FilesByType: []TypeCount{}, FilesByUser: []UserCount{}}
	if err := db.Model(&domain.UploadedFile{}).Count(&stats.TotalFiles).Error; err != nil {
		return stats, err
	}
	err := db.Model(&domain.UploadedFile{}).
		Select("file_type, COUNT(*) AS count").
		Group("file_type").
		Order("file_type").
		Scan(&stats.FilesByType).Error
	if err != nil {
		return stats, err
	}
	err = db.Model(&domain.UploadedFile{}).
		Select("users.username AS username, COUNT(*) AS count").
		Joins("JOIN users ON users.id = uploaded_files.user_id").
		Group("users.username").
		Order("users.username").
		Scan(&stats.FilesByUser).Error
	return stats, err
}

// StatsHandler returns global upload counts, served from Redis when cached
func StatsHandler(db *gorm.DB, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var cached StatsResponse
		if found, err := utils.GetCache(ctx, rdb, statsCacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		stats, err := computeStats(db)
		if err != nil {
			logrus.WithField("error", err.Error()).Error("Stats query failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}
		if err := utils.SetCache(ctx, rdb, statsCacheKey, stats, ttl); err != nil {
			logrus.WithField("error", err.Error()).Warn("Stats cache write failed")
		}
		c.JSON(http.StatusOK, stats)
	}
}

// invalidateStats drops the cached stats after a file write
func invalidateStats(c *gin.Context, rdb *redis.Client) {
	if err := utils.DeleteCache(c.Request.Context(), rdb, statsCacheKey); err != nil {
		logrus.WithField("error", err.Error()).Warn("Stats cache invalidation failed")
	}
}
