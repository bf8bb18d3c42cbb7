package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AgentRole controls what an agent can see across the agency
type AgentRole string

const (
	RoleAgent   AgentRole = "agent"
	RoleManager AgentRole = "manager"
)

// Agent represents a real-estate agent belonging to an agency
type Agent struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	AgencyID    string         `gorm:"size:36;not null;index" json:"agency_id"`
	Email       string         `gorm:"size:255;index" json:"email"` // optional; agents without one never receive reminders
	HashedPass  string         `gorm:"size:255;not null" json:"-"`
	FullName    string         `gorm:"size:120" json:"full_name"`
	DisplayName string         `gorm:"size:60" json:"display_name"`
	Phone       string         `gorm:"size:30" json:"phone"`
	Role        AgentRole      `gorm:"size:20;not null;default:agent" json:"role"`
	Timezone    string         `gorm:"size:64" json:"timezone"` // IANA zone name, e.g. "Europe/Madrid"
	Active      bool           `gorm:"not null;default:true" json:"active"`
	LastLogin   time.Time      `json:"last_login"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook is called before creating a new agent
func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.Role == "" {
		a.Role = RoleAgent
	}
	return nil
}

// BeforeSave hook is called before saving the agent
func (a *Agent) BeforeSave(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// SetPassword hashes and stores the password
func (a *Agent) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.HashedPass = string(hash)
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (a *Agent) VerifyPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.HashedPass), []byte(plain)) == nil
}

// RecipientName returns the name to greet the agent with in outgoing
// email. Falls back from full name to display name to the local part of
// the email address, and finally to a generic salutation.
func (a *Agent) RecipientName() string {
	if name := strings.TrimSpace(a.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(a.DisplayName); name != "" {
		return name
	}
	if a.Email != "" {
		if at := strings.Index(a.Email, "@"); at > 0 {
			return a.Email[:at]
		}
	}
	return "there"
}

// TableName specifies the table name for the Agent model
func (Agent) TableName() string {
	return "agent"
}

// CreateAgentRequest represents the data needed to register a new agent
type CreateAgentRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	FullName    string `json:"full_name" binding:"required"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Timezone    string `json:"timezone"`
	AgencyID    string `json:"agency_id" binding:"required"`
}

// UpdateAgentRequest represents updatable agent profile fields
type UpdateAgentRequest struct {
	FullName    *string `json:"full_name"`
	DisplayName *string `json:"display_name"`
	Phone       *string `json:"phone"`
	Timezone    *string `json:"timezone"`
	Active      *bool   `json:"active"`
}

// LoginRequest represents the data needed for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
