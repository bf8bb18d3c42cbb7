package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityType represents the kind of scheduled activity
type ActivityType string

const (
	ActivityViewing  ActivityType = "viewing"
	ActivityCall     ActivityType = "call"
	ActivityMeeting  ActivityType = "meeting"
	ActivityFollowUp ActivityType = "follow_up"
)

// ActivityStatus represents an activity's lifecycle state
type ActivityStatus string

const (
	ActivityOpen      ActivityStatus = "open"
	ActivityCompleted ActivityStatus = "completed"
	ActivityCancelled ActivityStatus = "cancelled"
)

// Activity represents a scheduled piece of work for an agent, usually
// tied to a lead (a viewing, a call, a follow-up). ScheduledAt may be
// nil for unscheduled to-dos; those never trigger time-window reminders.
type Activity struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	AgencyID    string         `gorm:"size:36;not null;index" json:"agency_id"`
	Title       string         `gorm:"size:160;not null" json:"title"`
	Type        ActivityType   `gorm:"size:20;not null" json:"type"`
	ScheduledAt *time.Time     `gorm:"index" json:"scheduled_at"`
	Status      ActivityStatus `gorm:"size:20;not null;default:open;index" json:"status"`
	AssigneeID  string         `gorm:"size:36;not null;index" json:"assignee_id"`
	LeadID      string         `gorm:"size:36;index" json:"lead_id"`
	PropertyID  *string        `gorm:"size:36;index" json:"property_id"`
	Notes       string         `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Lead *Lead `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
}

// BeforeCreate hook is called before creating a new activity
func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = ActivityOpen
	}
	return nil
}

// TypeLabel returns a human-readable label for the activity type
func (a *Activity) TypeLabel() string {
	switch a.Type {
	case ActivityViewing:
		return "Viewing"
	case ActivityCall:
		return "Call"
	case ActivityMeeting:
		return "Meeting"
	case ActivityFollowUp:
		return "Follow-up"
	}
	return "Activity"
}

// TableName specifies the table name for the Activity model
func (Activity) TableName() string {
	return "activity"
}

// CreateActivityRequest represents the data needed to schedule an activity
type CreateActivityRequest struct {
	Title       string       `json:"title" binding:"required"`
	Type        ActivityType `json:"type" binding:"required,oneof=viewing call meeting follow_up"`
	ScheduledAt *time.Time   `json:"scheduled_at"`
	AssigneeID  string       `json:"assignee_id"`
	LeadID      string       `json:"lead_id" binding:"required"`
	PropertyID  *string      `json:"property_id"`
	Notes       string       `json:"notes"`
}

// UpdateActivityRequest represents updatable activity fields
type UpdateActivityRequest struct {
	Title       *string       `json:"title"`
	Type        *ActivityType `json:"type" binding:"omitempty,oneof=viewing call meeting follow_up"`
	ScheduledAt *time.Time    `json:"scheduled_at"`
	AssigneeID  *string       `json:"assignee_id"`
	PropertyID  *string       `json:"property_id"`
	Notes       *string       `json:"notes"`
}
