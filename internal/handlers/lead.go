package handlers

import (
	"errors"
	"estatecrm/internal/database"
	"estatecrm/internal/models"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateLead handles the creation of a new lead
func CreateLead(c *gin.Context) {
	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	assignee := req.AssignedAgentID
	if assignee == "" {
		// Unassigned leads default to whoever created them
		assignee = c.GetString("agent_id")
	}

	lead := models.Lead{
		AgencyID:        c.GetString("agency_id"),
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Source:          req.Source,
		Budget:          req.Budget,
		AssignedAgentID: assignee,
		Notes:           req.Notes,
	}

	db := database.GetDB()
	if err := db.Create(&lead).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create lead", err)
		return
	}

	c.JSON(http.StatusCreated, lead)
}

// GetLeads handles listing leads with filtering, sorting, and pagination
func GetLeads(c *gin.Context) {
	db := database.GetDB()
	var leads []models.Lead

	query := db.Where("agency_id = ?", c.GetString("agency_id"))

	// Filtering
	if stage := c.Query("stage"); stage != "" {
		query = query.Where("stage = ?", stage)
	}
	if agentID := c.Query("assigned_agent_id"); agentID != "" {
		query = query.Where("assigned_agent_id = ?", agentID)
	}
	if source := c.Query("source"); source != "" {
		query = query.Where("source = ?", source)
	}
	if minBudget := c.Query("min_budget"); minBudget != "" {
		query = query.Where("budget >= ?", minBudget)
	}
	if maxBudget := c.Query("max_budget"); maxBudget != "" {
		query = query.Where("budget <= ?", maxBudget)
	}
	if name := c.Query("name"); name != "" {
		query = query.Where("name ILIKE ?", "%"+name+"%")
	}

	// Sorting
	sortBy := c.DefaultQuery("sort_by", "created_at")
	sortOrder := c.DefaultQuery("sort_order", "desc")
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	// Pagination with defaults
	limitStr := c.DefaultQuery("limit", "20")
	offsetStr := c.DefaultQuery("offset", "0")
	limit, err1 := strconv.Atoi(limitStr)
	if err1 != nil || limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100 // max limit
	}
	offset, err2 := strconv.Atoi(offsetStr)
	if err2 != nil || offset < 0 {
		offset = 0
	}
	query = query.Limit(limit).Offset(offset)

	if err := query.Find(&leads).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch leads", err)
		return
	}

	c.JSON(http.StatusOK, leads)
}

// GetLeadByID handles fetching a single lead with its open activities
func GetLeadByID(c *gin.Context) {
	leadID := c.Param("lead_id")
	db := database.GetDB()

	var lead models.Lead
	if err := db.Where("id = ? AND agency_id = ?", leadID, c.GetString("agency_id")).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Lead not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch lead", err)
		return
	}

	var activities []models.Activity
	if err := db.Where("lead_id = ? AND status = ?", leadID, models.ActivityOpen).
		Order("scheduled_at asc").Find(&activities).Error; err != nil {
		log.Printf("Warning: failed to fetch activities for lead %s: %v", leadID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"lead":            lead,
		"open_activities": activities,
	})
}

// UpdateLead handles updating a lead's details
func UpdateLead(c *gin.Context) {
	leadID := c.Param("lead_id")
	db := database.GetDB()

	var lead models.Lead
	if err := db.Where("id = ? AND agency_id = ?", leadID, c.GetString("agency_id")).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Lead not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch lead", err)
		return
	}

	var req models.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Source != nil {
		updates["source"] = *req.Source
	}
	if req.Budget != nil {
		updates["budget"] = *req.Budget
	}
	if req.AssignedAgentID != nil {
		updates["assigned_agent_id"] = *req.AssignedAgentID
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := db.Model(&lead).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update lead", err)
			return
		}
	}

	c.JSON(http.StatusOK, lead)
}

// UpdateLeadStage moves a lead through the pipeline. Moving to "won"
// records a commission for the assigned agent.
func UpdateLeadStage(c *gin.Context) {
	leadID := c.Param("lead_id")
	db := database.GetDB()

	var lead models.Lead
	if err := db.Where("id = ? AND agency_id = ?", leadID, c.GetString("agency_id")).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Lead not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch lead", err)
		return
	}

	var req models.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	if !models.ValidStage(req.Stage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown stage %q", req.Stage)})
		return
	}

	if lead.Stage == models.StageWon || lead.Stage == models.StageLost {
		c.JSON(http.StatusConflict, gin.H{"error": "lead pipeline is already closed"})
		return
	}

	if req.Stage == models.StageWon && req.SalePrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sale_price is required when marking a lead won"})
		return
	}

	if err := db.Model(&lead).Update("stage", req.Stage).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update stage", err)
		return
	}

	if req.Stage == models.StageWon {
		commission := models.Commission{
			AgencyID:  lead.AgencyID,
			AgentID:   lead.AssignedAgentID,
			LeadID:    lead.ID,
			SalePrice: req.SalePrice,
		}
		if req.PropertyID != "" {
			commission.PropertyID = &req.PropertyID
		}
		if err := db.Create(&commission).Error; err != nil {
			// The stage change stands; the commission can be recreated by hand
			log.Printf("Warning: failed to record commission for lead %s: %v", lead.ID, err)
		}
	}

	c.JSON(http.StatusOK, lead)
}

// DeleteLead soft-deletes a lead
func DeleteLead(c *gin.Context) {
	leadID := c.Param("lead_id")
	db := database.GetDB()

	result := db.Where("id = ? AND agency_id = ?", leadID, c.GetString("agency_id")).Delete(&models.Lead{})
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete lead", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lead deleted"})
}
