package auth

import (
	"errors"
	"estatecrm/internal/database"
	"estatecrm/internal/models"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware validates the session and loads the agent into the context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := GetSession(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		db := database.GetDB()
		var agent models.Agent
		if err := db.Where("id = ?", session.AgentID).First(&agent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
			}
			c.Abort()
			return
		}

		if !agent.Active {
			c.JSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
			c.Abort()
			return
		}

		// Store agent identity in context for handlers to use
		c.Set("agent_id", agent.ID)
		c.Set("agency_id", agent.AgencyID)
		c.Set("role", string(agent.Role))

		c.Next()
	}
}

// ManagerOnly restricts a route to agents with the manager role.
// Must run after AuthMiddleware.
func ManagerOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != string(models.RoleManager) {
			c.JSON(http.StatusForbidden, gin.H{"error": "manager role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
