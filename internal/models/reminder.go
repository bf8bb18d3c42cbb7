package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ReminderType identifies one kind of reminder
type ReminderType string

const (
	ReminderPreStart1h      ReminderType = "pre_start_1h"
	ReminderPostStart1hOpen ReminderType = "post_start_1h_open"
	ReminderDailyDigest     ReminderType = "daily_digest"
)

// ClaimStatus is the lifecycle state of a reminder claim. pending is the
// only non-terminal state; once a claim reaches sent, skipped or failed it
// never changes again.
type ClaimStatus string

const (
	ClaimPending ClaimStatus = "pending"
	ClaimSent    ClaimStatus = "sent"
	ClaimSkipped ClaimStatus = "skipped"
	ClaimFailed  ClaimStatus = "failed"
)

// ReminderClaim asserts ownership of one logical reminder occurrence.
// The unique index on DedupeKey is what guarantees at-most-one send per
// occurrence no matter how many sweeps see the same candidate: the first
// insert wins, every later attempt conflicts and backs off.
//
// Rows are never deleted; they double as the audit trail of everything
// the reminder engine did (or decided not to do).
type ReminderClaim struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	ActivityID   *string      `gorm:"size:36;index" json:"activity_id"` // nil for digest claims
	AgentID      string       `gorm:"size:36;not null;index" json:"agent_id"`
	ReminderType ReminderType `gorm:"size:30;not null" json:"reminder_type"`
	ScheduledFor time.Time    `gorm:"not null" json:"scheduled_for"`
	DedupeKey    string       `gorm:"size:128;not null;uniqueIndex" json:"dedupe_key"`
	Status       ClaimStatus  `gorm:"size:10;not null;default:pending" json:"status"`
	SkipReason   string       `gorm:"size:255" json:"skip_reason,omitempty"`
	ErrorMessage string       `gorm:"type:text" json:"error_message,omitempty"`
	MessageID    string       `gorm:"size:128" json:"message_id,omitempty"`
	SentAt       *time.Time   `json:"sent_at,omitempty"`
	AgencyID     string       `gorm:"size:36;index" json:"agency_id"` // reporting only, not part of the key
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}

// BeforeCreate hook for reminder claims
func (rc *ReminderClaim) BeforeCreate(tx *gorm.DB) error {
	if rc.CreatedAt.IsZero() {
		rc.CreatedAt = time.Now()
	}
	if rc.Status == "" {
		rc.Status = ClaimPending
	}
	return nil
}

// TableName specifies the table name for the ReminderClaim model
func (ReminderClaim) TableName() string {
	return "reminder_claim"
}

// ActivityDedupeKey builds the dedupe key for a time-window reminder.
// The format is load-bearing: it must stay stable across releases or
// old claims stop deduplicating new sweeps.
func ActivityDedupeKey(rt ReminderType, activityID string) string {
	return fmt.Sprintf("%s:%s", rt, activityID)
}

// DigestDedupeKey builds the dedupe key for a daily digest. localDate is
// the recipient's local calendar date as "YYYY-MM-DD".
func DigestDedupeKey(agentID, localDate string) string {
	return fmt.Sprintf("%s:%s:%s", ReminderDailyDigest, agentID, localDate)
}
