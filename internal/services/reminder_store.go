package services

import (
	"errors"
	"estatecrm/internal/models"
	"log"
	"time"

	"gorm.io/gorm"
)

// ActivityDirectory is the read-only view of the CRM data the reminder
// engine needs: window queries over activities plus point lookups for
// enrichment. Selection does not have to be exactly-once; the claim
// store absorbs overlap.
type ActivityDirectory interface {
	// OpenActivitiesInWindow returns open activities whose trigger
	// instant falls inside [start, end].
	OpenActivitiesInWindow(start, end time.Time) ([]models.Activity, error)

	// OpenActivitiesForAgentBetween returns the agent's open activities
	// with a trigger instant inside [start, end], ascending, each
	// enriched with its lead where possible.
	OpenActivitiesForAgentBetween(agentID string, start, end time.Time) ([]models.Activity, error)

	// ActiveAgents returns every agent eligible for digests.
	ActiveAgents() ([]models.Agent, error)

	AgentByID(id string) (*models.Agent, error)
	ActivityByID(id string) (*models.Activity, error)
	LeadByID(id string) (*models.Lead, error)
}

// GormActivityDirectory implements ActivityDirectory over the CRM database
type GormActivityDirectory struct {
	db *gorm.DB
}

// NewGormActivityDirectory wraps a gorm handle in an ActivityDirectory
func NewGormActivityDirectory(db *gorm.DB) *GormActivityDirectory {
	return &GormActivityDirectory{db: db}
}

// OpenActivitiesInWindow implements ActivityDirectory
func (d *GormActivityDirectory) OpenActivitiesInWindow(start, end time.Time) ([]models.Activity, error) {
	var activities []models.Activity
	err := d.db.
		Where("status = ?", models.ActivityOpen).
		Where("scheduled_at IS NOT NULL AND scheduled_at >= ? AND scheduled_at <= ?", start, end).
		Find(&activities).Error
	return activities, err
}

// OpenActivitiesForAgentBetween implements ActivityDirectory. Lead
// enrichment is best-effort: a failed lead lookup keeps the activity in
// the list with a nil Lead rather than dropping it from the digest.
func (d *GormActivityDirectory) OpenActivitiesForAgentBetween(agentID string, start, end time.Time) ([]models.Activity, error) {
	var activities []models.Activity
	err := d.db.
		Where("assignee_id = ? AND status = ?", agentID, models.ActivityOpen).
		Where("scheduled_at IS NOT NULL AND scheduled_at >= ? AND scheduled_at <= ?", start, end).
		Order("scheduled_at asc").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}

	for i := range activities {
		if activities[i].LeadID == "" {
			continue
		}
		lead, err := d.LeadByID(activities[i].LeadID)
		if err != nil {
			log.Printf("Warning: failed to load lead %s for digest: %v", activities[i].LeadID, err)
			continue
		}
		activities[i].Lead = lead
	}
	return activities, nil
}

// ActiveAgents implements ActivityDirectory
func (d *GormActivityDirectory) ActiveAgents() ([]models.Agent, error) {
	var agents []models.Agent
	err := d.db.Where("active = ?", true).Find(&agents).Error
	return agents, err
}

// AgentByID implements ActivityDirectory; returns (nil, nil) when absent
func (d *GormActivityDirectory) AgentByID(id string) (*models.Agent, error) {
	var agent models.Agent
	if err := d.db.Where("id = ?", id).First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agent, nil
}

// ActivityByID implements ActivityDirectory; returns (nil, nil) when absent
func (d *GormActivityDirectory) ActivityByID(id string) (*models.Activity, error) {
	var activity models.Activity
	if err := d.db.Where("id = ?", id).First(&activity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

// LeadByID implements ActivityDirectory; returns (nil, nil) when absent
func (d *GormActivityDirectory) LeadByID(id string) (*models.Lead, error) {
	var lead models.Lead
	if err := d.db.Where("id = ?", id).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lead, nil
}
