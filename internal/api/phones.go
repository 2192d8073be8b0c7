package api

import (
	"errors"                      // Error inspection
	"file_portal/internal/domain" // Importing domain models
	"net/http"                    // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// PhoneNumberRequest is the body of POST and PUT on phone numbers
type PhoneNumberRequest struct {
	Number    string `json:"number" binding:"required,max=20"`
	IsPrimary *bool  `json:"is_primary"`
}

// PhoneNumberPatchRequest is the body of PATCH on phone numbers
type PhoneNumberPatchRequest struct {
	Number    *string `json:"number" binding:"omitempty,min=1,max=20"`
	IsPrimary *bool   `json:"is_primary"`
}

// PhoneNumberResponse is the representation of a phone number
type PhoneNumberResponse struct {
	ID        uint   `json:"id"`
	Number    string `json:"number"`
	IsPrimary bool   `json:"is_primary"`
}

func newPhoneNumberResponses(list []domain.PhoneNumber) []PhoneNumberResponse {
	out := make([]PhoneNumberResponse, len(list))
	for i, p := range list {
		out[i] = PhoneNumberResponse{ID: p.ID, Number: p.Number, IsPrimary: p.IsPrimary}
	}
	return out
}

// findOwnedPhoneNumber loads a phone number by id and owner; foreign rows are not found
func findOwnedPhoneNumber(db *gorm.DB, c *gin.Context) (domain.PhoneNumber, bool) {
	var phone domain.PhoneNumber
	id, ok := parseID(c)
	if !ok {
		respondNotFound(c)
		return phone, false
	}
	if err := db.Where("id = ? AND user_id = ?", id, currentUserID(c)).First(&phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch phone number"})
		}
		return phone, false
	}
	return phone, true
}

// savePhoneNumber persists phone and enforces the single primary number rule
func savePhoneNumber(db *gorm.DB, phone *domain.PhoneNumber, create bool) error {
	return saveWithSingletonFlag(db, &domain.PhoneNumber{}, "is_primary", phone.UserID, phone.ID, phone.IsPrimary, func(tx *gorm.DB) error {
		if create {
			return tx.Create(phone).Error
		}
		return tx.Save(phone).Error
	})
}

// ListPhoneNumbersHandler returns the caller's phone numbers
func ListPhoneNumbersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var list []domain.PhoneNumber
		if err := db.Where("user_id = ?", currentUserID(c)).Order("id").Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch phone numbers"})
			return
		}
		c.JSON(http.StatusOK, newPhoneNumberResponses(list))
	}
}

// CreatePhoneNumberHandler adds a phone number owned by the caller
func CreatePhoneNumberHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PhoneNumberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, bindErrors(err))
			return
		}
		phone := domain.PhoneNumber{
			UserID:    currentUserID(c), // Owner is always the caller
			Number:    req.Number,
			IsPrimary: req.IsPrimary != nil && *req.IsPrimary,
		}
		if err := savePhoneNumber(db, &phone, true); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": phone.UserID, "error": err.Error()}).Error("Phone number create failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save phone number"})
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": phone.UserID, "phone_id": phone.ID, "is_primary": phone.IsPrimary}).Info("Phone number created")
		c.JSON(http.StatusCreated, PhoneNumberResponse{ID: phone.ID, Number: phone.Number, IsPrimary: phone.IsPrimary})
	}
}

// GetPhoneNumberHandler returns one of the caller's phone numbers
func GetPhoneNumberHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if phone, ok := findOwnedPhoneNumber(db, c); ok {
			c.JSON(http.StatusOK, PhoneNumberResponse{ID: phone.ID, Number: phone.Number, IsPrimary: phone.IsPrimary})
		}
	}
}

// UpdatePhoneNumberHandler handles PUT (partial=false) and PATCH (partial=true)
func UpdatePhoneNumberHandler(db *gorm.DB, partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone, ok := findOwnedPhoneNumber(db, c)
		if !ok {
			return
		}
		var flag *bool
		if partial {
			var req PhoneNumberPatchRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidation(c, bindErrors(err))
				return
			}
			setIfPresent(&phone.Number, req.Number)
			flag = req.IsPrimary
		} else {
			var req PhoneNumberRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidation(c, bindErrors(err))
				return
			}
			phone.Number = req.Number
			flag = req.IsPrimary
		}
		setIfPresent(&phone.IsPrimary, flag)
		if err := savePhoneNumber(db, &phone, false); err != nil {
			logrus.WithFields(logrus.Fields{"phone_id": phone.ID, "error": err.Error()}).Error("Phone number update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save phone number"})
			return
		}
		c.JSON(http.StatusOK, PhoneNumberResponse{ID: phone.ID, Number: phone.Number, IsPrimary: phone.IsPrimary})
	}
}

// DeletePhoneNumberHandler removes one of the caller's phone numbers
func DeletePhoneNumberHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone, ok := findOwnedPhoneNumber(db, c)
		if !ok {
			return
		}
		if err := db.Delete(&phone).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete phone number"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
