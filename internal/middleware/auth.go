package middleware

import (
	"file_portal/internal/domain" // Importing domain models
	"file_portal/internal/utils"  // JWT utility functions
	"net/http"                    // HTTP status codes
	"strings"                     // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Context keys set by AuthMiddleware
const (
	UserIDKey = "userID" // uint ID of the caller
	UserKey   = "user"   // domain.User of the caller
)

// AuthMiddleware accepts "Bearer <access JWT>" or "Token <opaque key>" and
// loads the caller before any handler runs
func AuthMiddleware(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, credential, ok := strings.Cut(c.GetHeader("Authorization"), " ") // Split scheme from credential
		credential = strings.TrimSpace(credential)
		// Check if the Authorization header is present and properly formatted
		if !ok || credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
			return
		}
		var userID uint // Caller resolved from the credential
		switch scheme {
		case "Bearer":
			claims, err := utils.ParseJWT(credential, secret, utils.AccessToken) // Only access tokens authenticate
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			userID = claims.UserID
		case "Token":
			var token domain.AuthToken // Opaque login token
			if err := db.Where(&domain.AuthToken{Key: credential}).First(&token).Error; err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			userID = token.UserID
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		var user domain.User // Token may outlive its user
		if err := db.First(&user, userID).Error; err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Token for unknown user")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		c.Set(UserIDKey, user.ID) // Store userID in context
		c.Set(UserKey, user)      // Store the loaded user for handlers
		c.Next()                  // Proceed to the next handler
	}
}
