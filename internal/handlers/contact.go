package handlers

import (
	"errors"
	"estatecrm/internal/database"
	"estatecrm/internal/models"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateContact handles the creation of a new contact
func CreateContact(c *gin.Context) {
	var req models.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	contact := models.Contact{
		AgencyID:     c.GetString("agency_id"),
		OwnerAgentID: c.GetString("agent_id"),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Company:      req.Company,
		Notes:        req.Notes,
	}

	db := database.GetDB()
	if err := db.Create(&contact).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create contact", err)
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// GetContacts lists contacts in the caller's agency
func GetContacts(c *gin.Context) {
	db := database.GetDB()
	var contacts []models.Contact

	query := db.Where("agency_id = ?", c.GetString("agency_id"))
	if name := c.Query("name"); name != "" {
		query = query.Where("name ILIKE ?", "%"+name+"%")
	}
	if owner := c.Query("owner_agent_id"); owner != "" {
		query = query.Where("owner_agent_id = ?", owner)
	}

	if err := query.Order("name asc").Find(&contacts).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch contacts", err)
		return
	}

	c.JSON(http.StatusOK, contacts)
}

// UpdateContact handles updating a contact
func UpdateContact(c *gin.Context) {
	contactID := c.Param("contact_id")
	db := database.GetDB()

	var contact models.Contact
	if err := db.Where("id = ? AND agency_id = ?", contactID, c.GetString("agency_id")).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Contact not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch contact", err)
		return
	}

	var req models.UpdateContactRequest
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
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := db.Model(&contact).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update contact", err)
			return
		}
	}

	c.JSON(http.StatusOK, contact)
}

// DeleteContact soft-deletes a contact
func DeleteContact(c *gin.Context) {
	contactID := c.Param("contact_id")
	db := database.GetDB()

	result := db.Where("id = ? AND agency_id = ?", contactID, c.GetString("agency_id")).Delete(&models.Contact{})
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete contact", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contact deleted"})
}
