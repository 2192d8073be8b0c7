package api

import (
	"file_portal/internal/domain" // Importing domain models
	"net/http"                    // HTTP status codes
	"strconv"                     // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// UserAdminResponse represents the user data returned to admins
type UserAdminResponse struct {
	UserResponse
	Role      string `json:"role"`       // User role
	FileCount int64  `json:"file_count"` // Number of uploaded files
}

// ListUsersHandler returns a page of users with their upload counts
func ListUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := 1      // Default page number
		pageSize := 20 // Default page size
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// Check and set page size within limits
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size
			}
		}
		offset := (page - 1) * pageSize // Calculate offset for pagination
		var total int64                 // Total user count
		if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
			return
		}
		var users []domain.User // Slice to hold users
		if err := db.Order("id").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		ids := make([]uint, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		// Upload counts for the users on this page
		var counts []struct {
			UserID uint
			Count  int64
		}
		if len(ids) > 0 {
			err := db.Model(&domain.UploadedFile{}).
				Select("user_id, COUNT(*) AS count").
				Where("user_id IN ?", ids).
				Group("user_id").
				Scan(&counts).Error
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count files"})
				return
			}
		}
		byUser := make(map[uint]int64, len(counts))
		for _, row := range counts {
			byUser[row.UserID] = row.Count
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		resp := make([]UserAdminResponse, len(users))
		for i, u := range users {
			resp[i] = UserAdminResponse{
				UserResponse: newUserResponse(u), // Public fields
				Role:         u.Role,             // User role
				FileCount:    byUser[u.ID],       // Zero when the user has no files
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"users":       resp,       // List of users
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of users
			"total_pages": totalPages, // Total pages
		})
	}
}
