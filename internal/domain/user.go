package domain

import "time"

// Roles a user can hold
const (
	RoleUser  = "user"  // Regular portal user
	RoleAdmin = "admin" // Portal administrator
)

// User Model
type User struct {
	ID           uint          `gorm:"primaryKey"`                                     // Primary key
	Username     string        `gorm:"size:150;uniqueIndex;not null"`                  // Unique username
	Email        string        `gorm:"size:254;uniqueIndex;not null"`                  // Unique email address
	FirstName    string        `gorm:"size:150"`                                       // Optional first name
	LastName     string        `gorm:"size:150"`                                       // Optional last name
	Password     string        `gorm:"not null"`                                       // Hashed password
	Role         string        `gorm:"size:20;default:user"`                           // Role: user or admin
	CreatedAt    time.Time     // Account creation time
	Addresses    []Address     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Postal addresses owned by the user
	PhoneNumbers []PhoneNumber `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Phone numbers owned by the user
	AuthToken    *AuthToken    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Opaque login token, if issued
}

// AuthToken Model
type AuthToken struct {
	Key       string    `gorm:"primaryKey;size:40"` // Opaque 40 character hex key
	UserID    uint      `gorm:"uniqueIndex"`        // One token per user
	CreatedAt time.Time // Issue time
}
