package api

import (
	"errors"                      // Error inspection
	"file_portal/internal/config" // Token lifetimes
	"file_portal/internal/domain" // Importing domain models
	"file_portal/internal/utils"  // Utility functions
	"net/http"                    // HTTP status codes
	"regexp"                      // Regular expressions
	"strings"                     // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=150"`       // Username must be provided
	Email     string `json:"email" binding:"required,email,max=254"`    // Email must be provided and unique
	Password  string `json:"password" binding:"required,min=8,max=128"` // Password must be provided
	FirstName string `json:"first_name" binding:"max=150"`              // Optional first name
	LastName  string `json:"last_name" binding:"max=150"`               // Optional last name
}

// CredentialsRequest is the body of POST /token and POST /login
type CredentialsRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// RefreshRequest is the body of POST /token/refresh
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"` // Refresh token from /token
}

// UserResponse is the public representation of an account
type UserResponse struct {
	ID        uint   `json:"id"`         // User ID
	Username  string `json:"username"`   // Username
	Email     string `json:"email"`      // Email address
	FirstName string `json:"first_name"` // First name
	LastName  string `json:"last_name"`  // Last name
}

func newUserResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`) // Letters, digits and @/./+/-/_

const (
	msgEmailTaken    = "A user with this email already exists."
	msgUsernameTaken = "A user with that username already exists."
	msgBadUsername   = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
)

// identityConflicts reports username and email values already used by
// another account. excludeID skips the caller's own row on profile updates.
func identityConflicts(db *gorm.DB, username, email string, excludeID uint) (FieldErrors, error) {
	fields := FieldErrors{}
	var count int64
	if username != "" {
		if err := db.Model(&domain.User{}).Where("username = ? AND id <> ?", username, excludeID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			fields.Add("username", msgUsernameTaken)
		}
	}
	if email != "" {
		if err := db.Model(&domain.User{}).Where("email = ? AND id <> ?", email, excludeID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			fields.Add("email", msgEmailTaken)
		}
	}
	return fields, nil
}

// RegisterHandler creates an account; it does not log the user in
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, bindErrors(err))
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)
		// Validate username characters
		if !usernamePattern.MatchString(req.Username) {
			respondValidation(c, FieldErrors{"username": {msgBadUsername}})
			return
		}
		// Explicit uniqueness pre-check so duplicates surface as field errors
		fields, err := identityConflicts(db, req.Username, req.Email, 0)
		if err != nil {
			logrus.WithField("error", err.Error()).Error("Registration lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
			return
		}
		if len(fields) > 0 {
			respondValidation(c, fields)
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Password:  string(hash),
			Role:      domain.RoleUser,
		}
		if err := db.Create(&user).Error; err != nil {
			// A concurrent registration may have taken the name between check and insert
			if fields, lookupErr := identityConflicts(db, req.Username, req.Email, 0); lookupErr == nil && len(fields) > 0 {
				respondValidation(c, fields)
				return
			}
			logrus.WithFields(logrus.Fields{"username": req.Username, "error": err.Error()}).Error("Registration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
		c.JSON(http.StatusCreated, newUserResponse(user))
	}
}

// authenticate returns the user matching the credentials
func authenticate(db *gorm.DB, username, password string) (*domain.User, error) {
	var user domain.User // Fetch user from database
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Equalize timing for unknown usernames
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		}
		return nil, err
	}
	// Compare provided password with stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, err
	}
	return &user, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("file-portal-dummy"), bcrypt.DefaultCost)

// TokenObtainHandler exchanges credentials for an access/refresh JWT pair
func TokenObtainHandler(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CredentialsRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, bindErrors(err))
			return
		}
		user, err := authenticate(db, req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No active account found with the given credentials"})
			return
		}
		pair, err := utils.GenerateTokenPair(user.ID, cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, pair)
	}
}

// TokenRefreshHandler issues a new access token for a valid refresh token
func TokenRefreshHandler(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, bindErrors(err))
			return
		}
		claims, err := utils.ParseJWT(req.Refresh, cfg.JWTSecret, utils.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is invalid or expired"})
			return
		}
		// The account may have been removed since the refresh token was issued
		if err := db.Select("id").First(&domain.User{}, claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is invalid or expired"})
			return
		}
		access, err := utils.GenerateJWT(claims.UserID, utils.AccessToken, cfg.JWTSecret, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access": access})
	}
}

// LoginHandler returns the caller's opaque token, creating it on first login
func LoginHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CredentialsRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, bindErrors(err))
			return
		}
		user, err := authenticate(db, req.Username, req.Password)
		if err != nil {
			respondValidation(c, FieldErrors{nonFieldErrorKey: {"Unable to log in with provided credentials."}})
			return
		}
		key, err := utils.GenerateTokenKey() // Only used when no token exists yet
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		var token domain.AuthToken
		err = db.Where(&domain.AuthToken{UserID: user.ID}).Attrs(domain.AuthToken{Key: key}).FirstOrCreate(&token).Error
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Error("Token creation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token.Key})
	}
}
