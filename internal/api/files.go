package api

import (
	"errors"                          // Error inspection
	"file_portal/internal/domain"     // Importing domain models
	"file_portal/internal/metrics"    // Upload counters
	"file_portal/internal/middleware" // Context keys
	"file_portal/internal/storage"    // Blob storage
	"fmt"                             // Key formatting
	"io"                              // Stream rewinding
	"mime/multipart"                  // Uploaded parts
	"net/http"                        // HTTP status codes

	"github.com/gabriel-vasile/mimetype" // Content sniffing
	"github.com/gin-gonic/gin"           // Gin web framework
	"github.com/google/uuid"             // Unique blob prefixes
	"github.com/redis/go-redis/v9"       // Redis client
	"github.com/sirupsen/logrus"         // Structured logging
	"gorm.io/gorm"                       // GORM ORM library
	"gorm.io/gorm/clause"                // Association control
)

// FileUploadRequest is the multipart body of POST /files
type FileUploadRequest struct {
	File     *multipart.FileHeader `form:"file" binding:"required"`                // Blob to store
	Filename string                `form:"filename" binding:"max=255"`             // Defaults to the blob's base name
	FileType string                `form:"file_type" binding:"omitempty,filetype"` // Defaults from the extension
}

// FileUpdateRequest is the body of PUT and PATCH on files, multipart or JSON
type FileUpdateRequest struct {
	File     *multipart.FileHeader `json:"-" form:"file"`                                              // Replacement blob
	Filename *string               `json:"filename" form:"filename" binding:"omitempty,min=1,max=255"` // New download name
	FileType *string               `json:"file_type" form:"file_type" binding:"omitempty,filetype"`    // New type
}

// FileResponse is the representation of an uploaded file
type FileResponse struct {
	ID          uint   `json:"id"`           // File ID
	User        string `json:"user"`         // Owner's username
	File        string `json:"file"`         // Storage key
	Filename    string `json:"filename"`     // Download name
	FileType    string `json:"file_type"`    // File type
	Size        int64  `json:"size"`         // Size in bytes
	ContentType string `json:"content_type"` // Sniffed MIME type
	UploadDate  string `json:"upload_date"`  // RFC 3339 timestamp
	FileURL     string `json:"file_url"`     // Absolute download URL
}

// newFileResponse builds the representation, with file_url absolute to the request host
func newFileResponse(c *gin.Context, f domain.UploadedFile, username string) FileResponse {
	scheme := c.GetString(middleware.SchemeKey) // Set by RequestScheme
	if scheme == "" {
		scheme = "http"
	}
	return FileResponse{
		ID:          f.ID,
		User:        username,
		File:        f.StorageKey,
		Filename:    f.Filename,
		FileType:    f.FileType,
		Size:        f.Size,
		ContentType: f.ContentType,
		UploadDate:  f.UploadDate.UTC().Format("2006-01-02T15:04:05.000000Z07:00"),
		FileURL:     fmt.Sprintf("%s://%s/api/download/%d", scheme, c.Request.Host, f.ID),
	}
}

// callerUsername returns the username of the authenticated caller
func callerUsername(c *gin.Context) string {
	if v, ok := c.Get(middleware.UserKey); ok {
		if u, ok := v.(domain.User); ok {
			return u.Username
		}
	}
	return ""
}

// storedBlob is an upload written to the object store
type storedBlob struct {
	Key         string
	Size        int64
	ContentType string
}

// storeUpload sniffs and writes an uploaded part under user_<id>/<uuid>/<name>
func storeUpload(c *gin.Context, store storage.ObjectStorage, userID uint, fh *multipart.FileHeader) (storedBlob, error) {
	f, err := fh.Open()
	if err != nil {
		return storedBlob{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return storedBlob{}, fmt.Errorf("detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return storedBlob{}, fmt.Errorf("rewind upload: %w", err)
	}
	name := domain.BaseName(fh.Filename)
	if name == "" || name == "." || name == ".." {
		name = "upload"
	}
	blob := storedBlob{
		Key:         fmt.Sprintf("user_%d/%s/%s", userID, uuid.NewString(), name),
		Size:        fh.Size,
		ContentType: mtype.String(),
	}
	if err := store.Put(c.Request.Context(), blob.Key, f, blob.Size, blob.ContentType); err != nil {
		return storedBlob{}, fmt.Errorf("put %s: %w", blob.Key, err)
	}
	metrics.UploadBytes.Add(float64(blob.Size))
	return blob, nil
}

// removeBlob deletes a blob whose row is gone or replaced; failures only leave an orphan
func removeBlob(c *gin.Context, store storage.ObjectStorage, key string) {
	if err := store.Delete(c.Request.Context(), key); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Blob cleanup failed")
	}
}

// findOwnedFile loads a file by id and owner; foreign rows are not found
func findOwnedFile(db *gorm.DB, c *gin.Context) (domain.UploadedFile, bool) {
	var file domain.UploadedFile
	id, ok := parseID(c)
	if !ok {
		respondNotFound(c)
		return file, false
	}
	if err := db.Where("id = ? AND user_id = ?", id, currentUserID(c)).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch file"})
		}
		return file, false
	}
	return file, true
}

// ListFilesHandler returns the caller's files, newest first
func ListFilesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var files []domain.UploadedFile
		if err := db.Where("user_id = ?", currentUserID(c)).Order("upload_date DESC, id DESC").Find(&files).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch files"})
			return
		}
		username := callerUsername(c)
		resp := make([]FileResponse, len(files))
		for i, f := range files {
			resp[i] = newFileResponse(c, f, username)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// UploadFileHandler stores a multipart upload owned by the caller
func UploadFileHandler(db *gorm.DB, store storage.ObjectStorage, rdb *redis.Client, maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentUserID(c)
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize) // Cap the multipart body
		var req FileUploadRequest
		if err := c.ShouldBind(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
				return
			}
			respondValidation(c, bindErrors(err))
			return
		}
		filename, fileType := domain.DeriveFileMeta(req.File.Filename, req.Filename, req.FileType)
		blob, err := storeUpload(c, store, userID, req.File)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
			return
		}
		file := domain.UploadedFile{
			UserID:      userID, // Owner is always the caller
			StorageKey:  blob.Key,
			Filename:    filename,
			FileType:    fileType,
			Size:        blob.Size,
			ContentType: blob.ContentType,
		}
		if err := db.Omit(clause.Associations).Create(&file).Error; err != nil {
			removeBlob(c, store, blob.Key) // No row points at the blob
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Upload record failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
			return
		}
		invalidateStats(c, rdb)
		metrics.Uploads.WithLabelValues(file.FileType).Inc()
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,        // Owner
			"file_id":   file.ID,       // New file
			"file_type": file.FileType, // Derived or given type
			"size":      file.Size,     // Bytes stored
		}).Info("File uploaded")
		c.JSON(http.StatusCreated, newFileResponse(c, file, callerUsername(c)))
	}
}

// GetFileHandler returns one of the caller's files
func GetFileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if file, ok := findOwnedFile(db, c); ok {
			c.JSON(http.StatusOK, newFileResponse(c, file, callerUsername(c)))
		}
	}
}

// UpdateFileHandler handles PUT (partial=false, blob required) and PATCH.
// Filename and type are only changed when sent, never re-derived.
func UpdateFileHandler(db *gorm.DB, store storage.ObjectStorage, rdb *redis.Client, maxSize int64, partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, ok := findOwnedFile(db, c)
		if !ok {
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		var req FileUpdateRequest
		if err := c.ShouldBind(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
				return
			}
			respondValidation(c, bindErrors(err))
			return
		}
		if !partial && req.File == nil {
			respondValidation(c, FieldErrors{"file": {msgRequired}})
			return
		}
		oldKey := file.StorageKey
		if req.File != nil {
			blob, err := storeUpload(c, store, file.UserID, req.File)
			if err != nil {
				logrus.WithFields(logrus.Fields{"file_id": file.ID, "error": err.Error()}).Error("Upload failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
				return
			}
			file.StorageKey, file.Size, file.ContentType = blob.Key, blob.Size, blob.ContentType
		}
		setIfPresent(&file.Filename, req.Filename)
		setIfPresent(&file.FileType, req.FileType)
		if err := db.Omit(clause.Associations).Save(&file).Error; err != nil {
			if file.StorageKey != oldKey {
				removeBlob(c, store, file.StorageKey)
			}
			logrus.WithFields(logrus.Fields{"file_id": file.ID, "error": err.Error()}).Error("File update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update file"})
			return
		}
		if file.StorageKey != oldKey {
			removeBlob(c, store, oldKey)
		}
		invalidateStats(c, rdb)
		c.JSON(http.StatusOK, newFileResponse(c, file, callerUsername(c)))
	}
}

// DeleteFileHandler removes one of the caller's files and its blob
func DeleteFileHandler(db *gorm.DB, store storage.ObjectStorage, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, ok := findOwnedFile(db, c)
		if !ok {
			return
		}
		if err := db.Delete(&file).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
			return
		}
		removeBlob(c, store, file.StorageKey)
		invalidateStats(c, rdb)
		logrus.WithFields(logrus.Fields{"user_id": file.UserID, "file_id": file.ID}).Info("File deleted")
		c.Status(http.StatusNoContent)
	}
}
