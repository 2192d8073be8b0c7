package domain

// Address Model
type Address struct {
	ID         uint   `gorm:"primaryKey"`        // Primary key
	UserID     uint   `gorm:"index;not null"`    // Owning user
	Street     string `gorm:"size:255;not null"` // Street line
	City       string `gorm:"size:100;not null"` // City
	State      string `gorm:"size:100;not null"` // State or region
	PostalCode string `gorm:"size:20;not null"`  // Postal code
	Country    string `gorm:"size:100;not null"` // Country
	IsDefault  bool   `gorm:"not null"`          // At most one per user
}

// PhoneNumber Model
type PhoneNumber struct {
	ID        uint   `gorm:"primaryKey"`       // Primary key
	UserID    uint   `gorm:"index;not null"`   // Owning user
	Number    string `gorm:"size:20;not null"` // Phone number as entered
	IsPrimary bool   `gorm:"not null"`         // At most one per user
}
