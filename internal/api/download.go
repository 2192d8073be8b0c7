package api

import (
	"errors"                       // Error inspection
	"file_portal/internal/domain"  // Importing domain models
	"file_portal/internal/metrics" // Download counters
	"file_portal/internal/storage" // Blob storage
	"mime"                         // Content-Disposition formatting
	"net/http"                     // HTTP status codes
	"strconv"                      // Path parameter parsing

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// DownloadHandler streams one of the caller's blobs as an attachment.
// Absent ids, foreign ids and missing blobs all answer the same 404.
func DownloadHandler(db *gorm.DB, store storage.ObjectStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		notFound := func() { c.JSON(http.StatusNotFound, gin.H{"error": msgFileNotFound}) }
		id, err := strconv.ParseUint(c.Param("file_id"), 10, 64)
		if err != nil {
			notFound()
			return
		}
		var file domain.UploadedFile // Lookup is scoped to the caller
		if err := db.Where("id = ? AND user_id = ?", id, currentUserID(c)).First(&file).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch file"})
				return
			}
			notFound()
			return
		}
		rc, err := store.Get(c.Request.Context(), file.StorageKey)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				logrus.WithFields(logrus.Fields{"file_id": file.ID, "key": file.StorageKey}).Warn("Blob missing for file record")
				notFound()
				return
			}
			logrus.WithFields(logrus.Fields{"file_id": file.ID, "error": err.Error()}).Error("Blob read failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
			return
		}
		defer rc.Close()
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename})
		metrics.Downloads.Inc()
		c.DataFromReader(http.StatusOK, file.Size, contentType, rc, map[string]string{
			"Content-Disposition": disposition,
		})
	}
}
