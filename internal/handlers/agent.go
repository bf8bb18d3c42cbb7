package handlers

import (
	"errors"
	"estatecrm/internal/database"
	"estatecrm/internal/models"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterAgent handles new agent registration
func RegisterAgent(c *gin.Context) {
	var req models.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	agent := models.Agent{
		Email:       req.Email,
		FullName:    req.FullName,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Timezone:    req.Timezone,
		AgencyID:    req.AgencyID,
		Active:      true,
	}
	if err := agent.SetPassword(req.Password); err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to process password", err)
		return
	}

	db := database.GetDB()
	if err := db.Create(&agent).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			handleError(c, http.StatusConflict, "Email already in use", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to create agent", err)
		return
	}

	c.JSON(http.StatusCreated, agent)
}

// ListAgents lists all agents in the caller's agency
func ListAgents(c *gin.Context) {
	db := database.GetDB()
	var agents []models.Agent

	query := db.Where("agency_id = ?", c.GetString("agency_id"))
	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	if err := query.Order("full_name asc").Find(&agents).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch agents", err)
		return
	}

	c.JSON(http.StatusOK, agents)
}

// UpdateAgent updates an agent's profile. Agents can edit themselves;
// managers can edit anyone in their agency.
func UpdateAgent(c *gin.Context) {
	agentID := c.Param("agent_id")

	if agentID != c.GetString("agent_id") && c.GetString("role") != string(models.RoleManager) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot edit another agent's profile"})
		return
	}

	db := database.GetDB()
	var agent models.Agent
	if err := db.Where("id = ? AND agency_id = ?", agentID, c.GetString("agency_id")).First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Agent not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch agent", err)
		return
	}

	var req models.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
	}
	if req.Active != nil {
		// Only managers can activate/deactivate accounts
		if c.GetString("role") != string(models.RoleManager) {
			c.JSON(http.StatusForbidden, gin.H{"error": "only managers can change active status"})
			return
		}
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&agent).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update agent", err)
			return
		}
	}

	c.JSON(http.StatusOK, agent)
}
