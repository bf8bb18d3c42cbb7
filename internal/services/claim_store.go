package services

import (
	"errors"
	"estatecrm/internal/models"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimStore atomically claims reminder occurrences by dedupe key and
// records their terminal outcome. Claim must be a single atomic
// insert-if-absent: two concurrent callers with the same key must see
// exactly one true result between them.
type ClaimStore interface {
	// Claim inserts the given claim in pending state. Returns
	// (true, nil) if this caller won the key, or (false, existing)
	// if a row with the same dedupe key already exists.
	Claim(claim *models.ReminderClaim) (bool, *models.ReminderClaim, error)

	// Finalize sets the terminal status on a previously claimed row.
	Finalize(id string, status models.ClaimStatus, details FinalizeDetails) error
}

// FinalizeDetails carries the outcome metadata recorded alongside the
// terminal status.
type FinalizeDetails struct {
	SentAt       *time.Time
	MessageID    string
	SkipReason   string
	ErrorMessage string
}

// GormClaimStore persists claims in the reminder_claim table. The atomic
// insert-if-absent is the unique index on dedupe_key plus an INSERT ...
// ON CONFLICT DO NOTHING; there is deliberately no read-before-write,
// which would reintroduce the duplicate-send race.
type GormClaimStore struct {
	db *gorm.DB
}

// NewGormClaimStore wraps a gorm handle in a ClaimStore
func NewGormClaimStore(db *gorm.DB) *GormClaimStore {
	return &GormClaimStore{db: db}
}

// Claim implements ClaimStore
func (s *GormClaimStore) Claim(claim *models.ReminderClaim) (bool, *models.ReminderClaim, error) {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	claim.Status = models.ClaimPending

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedupe_key"}},
		DoNothing: true,
	}).Create(claim)
	if result.Error != nil {
		return false, nil, fmt.Errorf("failed to insert claim %s: %w", claim.DedupeKey, result.Error)
	}

	if result.RowsAffected == 0 {
		// Lost the race (or a previous sweep already claimed this
		// occurrence). Report the existing row so callers can log its status.
		var existing models.ReminderClaim
		if err := s.db.Where("dedupe_key = ?", claim.DedupeKey).First(&existing).Error; err != nil {
			return false, nil, fmt.Errorf("failed to load existing claim %s: %w", claim.DedupeKey, err)
		}
		return false, &existing, nil
	}

	return true, nil, nil
}

// Finalize implements ClaimStore. The status guard makes terminal states
// sticky: a finalized row can never be flipped to a different outcome.
func (s *GormClaimStore) Finalize(id string, status models.ClaimStatus, details FinalizeDetails) error {
	if status == models.ClaimPending {
		return errors.New("cannot finalize a claim back to pending")
	}

	updates := map[string]interface{}{
		"status": status,
	}
	if details.SentAt != nil {
		updates["sent_at"] = details.SentAt
	}
	if details.MessageID != "" {
		updates["message_id"] = details.MessageID
	}
	if details.SkipReason != "" {
		updates["skip_reason"] = details.SkipReason
	}
	if details.ErrorMessage != "" {
		updates["error_message"] = details.ErrorMessage
	}

	result := s.db.Model(&models.ReminderClaim{}).
		Where("id = ? AND status = ?", id, models.ClaimPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to finalize claim %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("claim %s is not pending, refusing to finalize", id)
	}
	return nil
}
