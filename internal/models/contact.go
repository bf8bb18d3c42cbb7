package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact represents an address-book entry (vendors, solicitors, past clients)
type Contact struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	AgencyID     string         `gorm:"size:36;not null;index" json:"agency_id"`
	OwnerAgentID string         `gorm:"size:36;index" json:"owner_agent_id"`
	Name         string         `gorm:"size:120;not null" json:"name"`
	Email        string         `gorm:"size:255" json:"email"`
	Phone        string         `gorm:"size:30" json:"phone"`
	Company      string         `gorm:"size:120" json:"company"`
	Notes        string         `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook is called before creating a new contact
func (ct *Contact) BeforeCreate(tx *gorm.DB) error {
	if ct.ID == "" {
		ct.ID = uuid.NewString()
	}
	return nil
}

// TableName specifies the table name for the Contact model
func (Contact) TableName() string {
	return "contact"
}

// CreateContactRequest represents the data needed to create a contact
type CreateContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Notes   string `json:"notes"`
}

// UpdateContactRequest represents updatable contact fields
type UpdateContactRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Notes   *string `json:"notes"`
}
