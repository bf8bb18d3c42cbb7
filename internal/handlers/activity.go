package handlers

import (
	"errors"
	"estatecrm/internal/database"
	"estatecrm/internal/models"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateActivity schedules a new activity against a lead
func CreateActivity(c *gin.Context) {
	var req models.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	db := database.GetDB()

	// The lead must exist in the caller's agency
	var lead models.Lead
	if err := db.Where("id = ? AND agency_id = ?", req.LeadID, c.GetString("agency_id")).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Lead not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch lead", err)
		return
	}

	assignee := req.AssigneeID
	if assignee == "" {
		assignee = c.GetString("agent_id")
	}

	activity := models.Activity{
		AgencyID:    c.GetString("agency_id"),
		Title:       req.Title,
		Type:        req.Type,
		ScheduledAt: req.ScheduledAt,
		AssigneeID:  assignee,
		LeadID:      req.LeadID,
		PropertyID:  req.PropertyID,
		Notes:       req.Notes,
	}

	if err := db.Create(&activity).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create activity", err)
		return
	}

	c.JSON(http.StatusCreated, activity)
}

// GetActivities lists activities, optionally filtered by assignee, status
// and scheduling range
func GetActivities(c *gin.Context) {
	db := database.GetDB()
	var activities []models.Activity

	query := db.Where("agency_id = ?", c.GetString("agency_id"))

	if assignee := c.Query("assignee_id"); assignee != "" {
		query = query.Where("assignee_id = ?", assignee)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if leadID := c.Query("lead_id"); leadID != "" {
		query = query.Where("lead_id = ?", leadID)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("scheduled_at >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("scheduled_at <= ?", to)
	}

	if err := query.Order("scheduled_at asc").Find(&activities).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch activities", err)
		return
	}

	c.JSON(http.StatusOK, activities)
}

// UpdateActivity handles updating an open activity
func UpdateActivity(c *gin.Context) {
	activityID := c.Param("activity_id")
	db := database.GetDB()

	var activity models.Activity
	if err := db.Where("id = ? AND agency_id = ?", activityID, c.GetString("agency_id")).First(&activity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Activity not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch activity", err)
		return
	}

	if activity.Status != models.ActivityOpen {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot edit a closed activity"})
		return
	}

	var req models.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.ScheduledAt != nil {
		updates["scheduled_at"] = *req.ScheduledAt
	}
	if req.AssigneeID != nil {
		updates["assignee_id"] = *req.AssigneeID
	}
	if req.PropertyID != nil {
		updates["property_id"] = *req.PropertyID
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := db.Model(&activity).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update activity", err)
			return
		}
	}

	c.JSON(http.StatusOK, activity)
}

// closeActivity transitions an open activity to the given terminal status
func closeActivity(c *gin.Context, status models.ActivityStatus) {
	activityID := c.Param("activity_id")
	db := database.GetDB()

	result := db.Model(&models.Activity{}).
		Where("id = ? AND agency_id = ? AND status = ?", activityID, c.GetString("agency_id"), models.ActivityOpen).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update activity", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No open activity with that id"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Activity " + string(status)})
}

// CompleteActivity marks an open activity as completed
func CompleteActivity(c *gin.Context) {
	closeActivity(c, models.ActivityCompleted)
}

// CancelActivity marks an open activity as cancelled
func CancelActivity(c *gin.Context) {
	closeActivity(c, models.ActivityCancelled)
}
