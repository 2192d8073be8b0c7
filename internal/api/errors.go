package api

import (
	"encoding/json"                   // JSON decode errors
	"errors"                          // Error inspection
	"file_portal/internal/domain"     // File type choices
	"file_portal/internal/middleware" // Context keys
	"fmt"                             // Message formatting
	"net/http"                        // HTTP status codes
	"reflect"                         // Struct tag lookup
	"strconv"                         // Path parameter parsing
	"strings"                         // Tag parsing

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Gin's validator engine
	"github.com/go-playground/validator/v10" // Field level validation errors
)

// Messages shared by every owner-scoped resource
const (
	msgNotFound      = "Not found"
	msgFileNotFound  = "File not found"
	msgRequired      = "This field is required."
	msgValidation    = "Validation failed"
	nonFieldErrorKey = "non_field_errors"
)

func init() {
	// Report fields by their wire names instead of Go struct names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		// file_type must be one of domain.FileTypes
		_ = v.RegisterValidation("filetype", func(fl validator.FieldLevel) bool {
			return domain.IsValidFileType(fl.Field().String())
		})
	}
}

// FieldErrors maps a request field to its validation messages
type FieldErrors map[string][]string

// Add appends a message for field
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// respondValidation writes the structured 400 body
func respondValidation(c *gin.Context, fields FieldErrors) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msgValidation, "fields": fields})
}

// respondNotFound writes the uniform 404 used for absent and foreign records alike
func respondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
}

// bindErrors converts a binding failure into field errors
func bindErrors(err error) FieldErrors {
	fields := FieldErrors{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields.Add(fe.Field(), fieldMessage(fe))
		}
		return fields
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		fields.Add(typeErr.Field, fmt.Sprintf("Expected a %s value.", typeErr.Type.Kind()))
		return fields
	}
	fields.Add(nonFieldErrorKey, "Invalid request body.")
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "oneof", "filetype":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	default:
		return "Invalid value."
	}
}

// currentUserID returns the caller set by the auth middleware
func currentUserID(c *gin.Context) uint {
	return c.GetUint(middleware.UserIDKey)
}

// parseID reads the :id path parameter; a malformed id is treated as absent
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
