package handlers

import (
	"estatecrm/internal/database"
	"estatecrm/internal/models"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetCommissions lists commissions for the caller's agency with totals.
// Agents see their own; managers see everyone's.
func GetCommissions(c *gin.Context) {
	db := database.GetDB()
	var commissions []models.Commission

	query := db.Where("agency_id = ?", c.GetString("agency_id"))
	if c.GetString("role") != string(models.RoleManager) {
		query = query.Where("agent_id = ?", c.GetString("agent_id"))
	} else if agentID := c.Query("agent_id"); agentID != "" {
		query = query.Where("agent_id = ?", agentID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("created_at desc").Find(&commissions).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch commissions", err)
		return
	}

	var total, pending float64
	for _, cm := range commissions {
		total += cm.Amount
		if cm.Status == models.CommissionPending {
			pending += cm.Amount
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"commissions":    commissions,
		"total_amount":   total,
		"pending_amount": pending,
	})
}

// MarkCommissionPaid settles a pending commission (managers only)
func MarkCommissionPaid(c *gin.Context) {
	commissionID := c.Param("commission_id")
	db := database.GetDB()

	now := time.Now()
	result := db.Model(&models.Commission{}).
		Where("id = ? AND agency_id = ? AND status = ?", commissionID, c.GetString("agency_id"), models.CommissionPending).
		Updates(map[string]interface{}{"status": models.CommissionPaid, "paid_at": now})
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update commission", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending commission with that id"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Commission marked paid"})
}
