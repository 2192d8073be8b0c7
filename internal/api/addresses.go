package api

import (
	"errors"                      // Error inspection
	"file_portal/internal/domain" // Importing domain models
	"net/http"                    // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// AddressRequest is the body of POST and PUT on addresses
type AddressRequest struct {
	Street     string `json:"street" binding:"required,max=255"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"required,max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,max=100"`
	IsDefault  *bool  `json:"is_default"` // Absent leaves the flag unchanged on update
}

// AddressPatchRequest is the body of PATCH on addresses
type AddressPatchRequest struct {
	Street     *string `json:"street" binding:"omitempty,min=1,max=255"`
	City       *string `json:"city" binding:"omitempty,min=1,max=100"`
	State      *string `json:"state" binding:"omitempty,min=1,max=100"`
	PostalCode *string `json:"postal_code" binding:"omitempty,min=1,max=20"`
	Country    *string `json:"country" binding:"omitempty,min=1,max=100"`
	IsDefault  *bool   `json:"is_default"`
}

// AddressResponse is the representation of an address
type AddressResponse struct {
	ID         uint   `json:"id"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

func newAddressResponse(a domain.Address) AddressResponse {
	return AddressResponse{
		ID:         a.ID,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
	}
}

func newAddressResponses(list []domain.Address) []AddressResponse {
	out := make([]AddressResponse, len(list))
	for i, a := range list {
		out[i] = newAddressResponse(a)
	}
	return out
}

// findOwnedAddress loads an address by id and owner; foreign rows are not found
func findOwnedAddress(db *gorm.DB, c *gin.Context) (domain.Address, bool) {
	var addr domain.Address
	id, ok := parseID(c)
	if !ok {
		respondNotFound(c)
		return addr, false
	}
	if err := db.Where("id = ? AND user_id = ?", id, currentUserID(c)).First(&addr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch address"})
		}
		return addr, false
	}
	return addr, true
}

// saveAddress persists addr and enforces the single default address rule
func saveAddress(db *gorm.DB, addr *domain.Address, create bool) error {
	return saveWithSingletonFlag(db, &domain.Address{}, "is_default", addr.UserID, addr.ID, addr.IsDefault, func(tx *gorm.DB) error {
		if create {
			return tx.Create(addr).Error
		}
		return tx.Save(addr).Error
	})
}

// ListAddressesHandler returns the caller's addresses
func ListAddressesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var list []domain.Address
		if err := db.Where("user_id = ?", currentUserID(c)).Order("id").Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch addresses"})
			return
		}
		c.JSON(http.StatusOK, newAddressResponses(list))
	}
}

// CreateAddressHandler adds an address owned by the caller
func CreateAddressHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, bindErrors(err))
			return
		}
		addr := domain.Address{
			UserID:     currentUserID(c), // Owner is always the caller
			Street:     req.Street,
			City:       req.City,
			State:      req.State,
			PostalCode: req.PostalCode,
			Country:    req.Country,
			IsDefault:  req.IsDefault != nil && *req.IsDefault,
		}
		if err := saveAddress(db, &addr, true); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": addr.UserID, "error": err.Error()}).Error("Address create failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save address"})
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": addr.UserID, "address_id": addr.ID, "is_default": addr.IsDefault}).Info("Address created")
		c.JSON(http.StatusCreated, newAddressResponse(addr))
	}
}

// GetAddressHandler returns one of the caller's addresses
func GetAddressHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if addr, ok := findOwnedAddress(db, c); ok {
			c.JSON(http.StatusOK, newAddressResponse(addr))
		}
	}
}

// UpdateAddressHandler handles PUT (partial=false) and PATCH (partial=true)
func UpdateAddressHandler(db *gorm.DB, partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr, ok := findOwnedAddress(db, c)
		if !ok {
			return
		}
		var flag *bool
		if partial {
			var req AddressPatchRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidation(c, bindErrors(err))
				return
			}
			setIfPresent(&addr.Street, req.Street)
			setIfPresent(&addr.City, req.City)
			setIfPresent(&addr.State, req.State)
			setIfPresent(&addr.PostalCode, req.PostalCode)
			setIfPresent(&addr.Country, req.Country)
			flag = req.IsDefault
		} else {
			var req AddressRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondValidation(c, bindErrors(err))
				return
			}
			addr.Street, addr.City, addr.State = req.Street, req.City, req.State
			addr.PostalCode, addr.Country = req.PostalCode, req.Country
			flag = req.IsDefault
		}
		setIfPresent(&addr.IsDefault, flag)
		if err := saveAddress(db, &addr, false); err != nil {
			logrus.WithFields(logrus.Fields{"address_id": addr.ID, "error": err.Error()}).Error("Address update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save address"})
			return
		}
		c.JSON(http.StatusOK, newAddressResponse(addr))
	}
}

// DeleteAddressHandler removes one of the caller's addresses
func DeleteAddressHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr, ok := findOwnedAddress(db, c)
		if !ok {
			return
		}
		if err := db.Delete(&addr).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete address"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func setIfPresent[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
