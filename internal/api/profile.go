package api

import (
	"file_portal/internal/domain" // Importing domain models
	"net/http"                    // HTTP status codes
	"strings"                     // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

// ProfileResponse is the caller's account with nested contact records
type ProfileResponse struct {
	UserResponse
	Addresses    []AddressResponse     `json:"addresses"`     // Read-only here, managed via /addresses
	PhoneNumbers []PhoneNumberResponse `json:"phone_numbers"` // Read-only here, managed via /phone-numbers
}

// ProfileUpdateRequest is the body of PATCH /profile; absent fields are left alone
type ProfileUpdateRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=1,max=150"`
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
}

// loadProfile fetches the user with addresses and phone numbers in id order
func loadProfile(db *gorm.DB, userID uint) (ProfileResponse, error) {
	var user domain.User
	err := db.Preload("Addresses", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("PhoneNumbers", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		First(&user, userID).Error
	if err != nil {
		return ProfileResponse{}, err
	}
	return ProfileResponse{
		UserResponse: newUserResponse(user),
		Addresses:    newAddressResponses(user.Addresses),
		PhoneNumbers: newPhoneNumberResponses(user.PhoneNumbers),
	}, nil
}

// GetProfileHandler returns the caller's profile
func GetProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := loadProfile(db, currentUserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

// UpdateProfileHandler partially updates username, email and name fields.
// A username change drops the cached stats, which are keyed by username.
func UpdateProfileHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentUserID(c)
		var req ProfileUpdateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, bindErrors(err))
			return
		}
		updates := map[string]any{} // Only the columns the caller sent
		var username, email string
		if req.Username != nil {
			username = strings.TrimSpace(*req.Username)
			if !usernamePattern.MatchString(username) {
				respondValidation(c, FieldErrors{"username": {msgBadUsername}})
				return
			}
			updates["username"] = username
		}
		if req.Email != nil {
			email = strings.TrimSpace(*req.Email)
			updates["email"] = email
		}
		if req.FirstName != nil {
			updates["first_name"] = *req.FirstName
		}
		if req.LastName != nil {
			updates["last_name"] = *req.LastName
		}
		// The caller's own row never conflicts with itself
		fields, err := identityConflicts(db, username, email, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
		if len(fields) > 0 {
			respondValidation(c, fields)
			return
		}
		if len(updates) > 0 {
			if err := db.Model(&domain.User{ID: userID}).Updates(updates).Error; err != nil {
				logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Profile update failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
				return
			}
			if _, renamed := updates["username"]; renamed {
				invalidateStats(c, rdb)
			}
			logrus.WithFields(logrus.Fields{"user_id": userID, "fields": len(updates)}).Info("Profile updated")
		}
		profile, err := loadProfile(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}
