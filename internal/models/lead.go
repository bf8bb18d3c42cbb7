package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PipelineStage represents where a lead sits in the sales pipeline
type PipelineStage string

const (
	StageNew       PipelineStage = "new"
	StageContacted PipelineStage = "contacted"
	StageQualified PipelineStage = "qualified"
	StageViewing   PipelineStage = "viewing"
	StageOffer     PipelineStage = "offer"
	StageWon       PipelineStage = "won"
	StageLost      PipelineStage = "lost"
)

// ValidStage reports whether s is a known pipeline stage
func ValidStage(s PipelineStage) bool {
	switch s {
	case StageNew, StageContacted, StageQualified, StageViewing, StageOffer, StageWon, StageLost:
		return true
	}
	return false
}

// Lead represents a prospective buyer or seller
type Lead struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	AgencyID        string         `gorm:"size:36;not null;index" json:"agency_id"`
	Name            string         `gorm:"size:120;not null" json:"name"`
	Email           string         `gorm:"size:255" json:"email"`
	Phone           string         `gorm:"size:30" json:"phone"`
	Source          string         `gorm:"size:50" json:"source"` // portal, referral, walk_in, website
	Budget          float64        `json:"budget"`
	Stage           PipelineStage  `gorm:"size:20;not null;default:new;index" json:"stage"`
	AssignedAgentID string         `gorm:"size:36;index" json:"assigned_agent_id"`
	Notes           string         `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook is called before creating a new lead
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Stage == "" {
		l.Stage = StageNew
	}
	return nil
}

// TableName specifies the table name for the Lead model
func (Lead) TableName() string {
	return "lead"
}

// CreateLeadRequest represents the data needed to create a new lead
type CreateLeadRequest struct {
	Name            string  `json:"name" binding:"required"`
	Email           string  `json:"email" binding:"omitempty,email"`
	Phone           string  `json:"phone"`
	Source          string  `json:"source"`
	Budget          float64 `json:"budget" binding:"omitempty,min=0"`
	AssignedAgentID string  `json:"assigned_agent_id"`
	Notes           string  `json:"notes"`
}

// UpdateLeadRequest represents updatable lead fields
type UpdateLeadRequest struct {
	Name            *string  `json:"name"`
	Email           *string  `json:"email" binding:"omitempty,email"`
	Phone           *string  `json:"phone"`
	Source          *string  `json:"source"`
	Budget          *float64 `json:"budget"`
	AssignedAgentID *string  `json:"assigned_agent_id"`
	Notes           *string  `json:"notes"`
}

// UpdateStageRequest moves a lead to a new pipeline stage
type UpdateStageRequest struct {
	Stage PipelineStage `json:"stage" binding:"required"`
	// SalePrice is required when moving to "won" so the commission can be recorded
	SalePrice  float64 `json:"sale_price"`
	PropertyID string  `json:"property_id"`
}
