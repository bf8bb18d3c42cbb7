package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommissionStatus represents a commission's payout state
type CommissionStatus string

const (
	CommissionPending CommissionStatus = "pending"
	CommissionPaid    CommissionStatus = "paid"
)

// DefaultCommissionRate is applied when a deal closes without an explicit rate
const DefaultCommissionRate = 0.03

// Commission represents the agency's cut of a closed deal
type Commission struct {
	ID         string           `gorm:"primaryKey;size:36" json:"id"`
	AgencyID   string           `gorm:"size:36;not null;index" json:"agency_id"`
	AgentID    string           `gorm:"size:36;not null;index" json:"agent_id"`
	LeadID     string           `gorm:"size:36;not null;index" json:"lead_id"`
	PropertyID *string          `gorm:"size:36;index" json:"property_id"`
	SalePrice  float64          `gorm:"not null" json:"sale_price"`
	Rate       float64          `gorm:"not null" json:"rate"`
	Amount     float64          `gorm:"not null" json:"amount"`
	Status     CommissionStatus `gorm:"size:20;not null;default:pending" json:"status"`
	PaidAt     *time.Time       `json:"paid_at"`
	CreatedAt  time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook is called before creating a new commission
func (cm *Commission) BeforeCreate(tx *gorm.DB) error {
	if cm.ID == "" {
		cm.ID = uuid.NewString()
	}
	if cm.Rate == 0 {
		cm.Rate = DefaultCommissionRate
	}
	if cm.Amount == 0 {
		cm.Amount = cm.SalePrice * cm.Rate
	}
	if cm.Status == "" {
		cm.Status = CommissionPending
	}
	return nil
}

// TableName specifies the table name for the Commission model
func (Commission) TableName() string {
	return "commission"
}
