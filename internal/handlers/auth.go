package handlers

import (
	"errors"
	"estatecrm/internal/auth"
	"estatecrm/internal/database"
	"estatecrm/internal/models"
	"estatecrm/internal/utils"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Login authenticates an agent and issues a session token
func Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid login request", err)
		return
	}

	db := database.GetDB()
	var agent models.Agent
	if err := db.Where("email = ?", req.Email).First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusUnauthorized, "Invalid credentials", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Login attempt failed", err)
		return
	}

	if !agent.VerifyPassword(req.Password) {
		handleError(c, http.StatusUnauthorized, "Invalid credentials",
			fmt.Errorf("password verification failed for %s", req.Email))
		return
	}

	if !agent.Active {
		handleError(c, http.StatusForbidden, "Account is deactivated",
			fmt.Errorf("login attempt on deactivated account %s", agent.ID))
		return
	}

	token, err := auth.CreateSession(&agent, utils.GetRealClientIP(c), c.Request.UserAgent())
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create session", err)
		return
	}

	// Update last login time; failure here shouldn't fail the login
	if err := db.Model(&agent).Update("last_login", time.Now()).Error; err != nil {
		log.Printf("Warning: failed to update last login for %s: %v", agent.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"agent": gin.H{
			"id":        agent.ID,
			"email":     agent.Email,
			"full_name": agent.FullName,
			"role":      agent.Role,
		},
	})
}

// Logout invalidates the current session
func Logout(c *gin.Context) {
	auth.DeleteSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}

// GetCurrentAgent returns the currently authenticated agent
func GetCurrentAgent(c *gin.Context) {
	agentID := c.GetString("agent_id")
	if agentID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	db := database.GetDB()
	var agent models.Agent
	if err := db.Where("id = ?", agentID).First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Agent not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to retrieve agent", err)
		return
	}

	c.JSON(http.StatusOK, agent)
}
