package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PropertyStatus represents a listing's availability
type PropertyStatus string

const (
	PropertyAvailable  PropertyStatus = "available"
	PropertyUnderOffer PropertyStatus = "under_offer"
	PropertySold       PropertyStatus = "sold"
	PropertyWithdrawn  PropertyStatus = "withdrawn"
)

// Property represents a listing managed by the agency
type Property struct {
	ID             string                       `gorm:"primaryKey;size:36" json:"id"`
	AgencyID       string                       `gorm:"size:36;not null;index" json:"agency_id"`
	ListingAgentID string                       `gorm:"size:36;index" json:"listing_agent_id"`
	Title          string                       `gorm:"size:160;not null" json:"title"`
	Address        string                       `gorm:"size:255;not null" json:"address"`
	City           string                       `gorm:"size:80;index" json:"city"`
	PostalCode     string                       `gorm:"size:20" json:"postal_code"`
	Price          float64                      `gorm:"not null" json:"price"`
	Bedrooms       int                          `json:"bedrooms"`
	Bathrooms      int                          `json:"bathrooms"`
	AreaSqm        float64                      `json:"area_sqm"`
	Status         PropertyStatus               `gorm:"size:20;not null;default:available;index" json:"status"`
	Latitude       float64                      `json:"latitude"`
	Longitude      float64                      `json:"longitude"`
	PlaceID        string                       `gorm:"size:255" json:"place_id"`
	Photos         datatypes.JSONSlice[string]  `json:"photos"`
	Features       datatypes.JSONSlice[string]  `json:"features"` // garden, parking, lift, terrace...
	Description    string                       `gorm:"type:text" json:"description"`
	CreatedAt      time.Time                    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time                    `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt               `gorm:"index" json:"-"`
}

// BeforeCreate hook is called before creating a new property
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = PropertyAvailable
	}
	return nil
}

// TableName specifies the table name for the Property model
func (Property) TableName() string {
	return "property"
}

// CreatePropertyRequest represents the data needed to create a listing
type CreatePropertyRequest struct {
	Title       string   `json:"title" binding:"required"`
	Address     string   `json:"address" binding:"required"`
	City        string   `json:"city"`
	PostalCode  string   `json:"postal_code"`
	Price       float64  `json:"price" binding:"required,min=0"`
	Bedrooms    int      `json:"bedrooms" binding:"omitempty,min=0"`
	Bathrooms   int      `json:"bathrooms" binding:"omitempty,min=0"`
	AreaSqm     float64  `json:"area_sqm" binding:"omitempty,min=0"`
	PlaceID     string   `json:"place_id"`
	Features    []string `json:"features"`
	Description string   `json:"description"`
}

// UpdatePropertyRequest represents updatable listing fields
type UpdatePropertyRequest struct {
	Title       *string         `json:"title"`
	Address     *string         `json:"address"`
	City        *string         `json:"city"`
	PostalCode  *string         `json:"postal_code"`
	Price       *float64        `json:"price"`
	Bedrooms    *int            `json:"bedrooms"`
	Bathrooms   *int            `json:"bathrooms"`
	AreaSqm     *float64        `json:"area_sqm"`
	Status      *PropertyStatus `json:"status"`
	PlaceID     *string         `json:"place_id"`
	Features    *[]string       `json:"features"`
	Description *string         `json:"description"`
}
