package handlers

import (
	"errors"
	"estatecrm/internal/database"
	"estatecrm/internal/models"
	"estatecrm/internal/services"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxPhotoSize caps listing photo uploads at 10 MB
const MaxPhotoSize = 10 << 20

// CreateProperty handles the creation of a new listing
func CreateProperty(c *gin.Context) {
	var req models.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	property := models.Property{
		AgencyID:       c.GetString("agency_id"),
		ListingAgentID: c.GetString("agent_id"),
		Title:          req.Title,
		Address:        req.Address,
		City:           req.City,
		PostalCode:     req.PostalCode,
		Price:          req.Price,
		Bedrooms:       req.Bedrooms,
		Bathrooms:      req.Bathrooms,
		AreaSqm:        req.AreaSqm,
		PlaceID:        req.PlaceID,
		Features:       datatypes.NewJSONSlice(req.Features),
		Description:    req.Description,
	}

	// Geocoding is best-effort; a listing without coordinates is still a listing
	if result, err := services.GeocodeAddress(req.Address); err != nil {
		log.Printf("Warning: failed to geocode %q: %v", req.Address, err)
	} else {
		property.Latitude = result.Geometry.Location.Lat
		property.Longitude = result.Geometry.Location.Lng
		if property.PlaceID == "" {
			property.PlaceID = result.PlaceID
		}
	}

	db := database.GetDB()
	if err := db.Create(&property).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create property", err)
		return
	}

	c.JSON(http.StatusCreated, property)
}

// GetProperties handles listing properties with filtering, sorting, and pagination
func GetProperties(c *gin.Context) {
	db := database.GetDB()
	var properties []models.Property

	query := db.Where("agency_id = ?", c.GetString("agency_id"))

	// Filtering
	if city := c.Query("city"); city != "" {
		query = query.Where("city ILIKE ?", city)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		query = query.Where("price >= ?", minPrice)
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		query = query.Where("price <= ?", maxPrice)
	}
	if minBedrooms := c.Query("min_bedrooms"); minBedrooms != "" {
		query = query.Where("bedrooms >= ?", minBedrooms)
	}
	if agentID := c.Query("listing_agent_id"); agentID != "" {
		query = query.Where("listing_agent_id = ?", agentID)
	}

	// Sorting
	sortBy := c.DefaultQuery("sort_by", "created_at")
	sortOrder := c.DefaultQuery("sort_order", "desc")
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	// Pagination with defaults
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	query = query.Limit(limit).Offset(offset)

	if err := query.Find(&properties).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch properties", err)
		return
	}

	c.JSON(http.StatusOK, properties)
}

// GetPropertyByID handles fetching a single listing
func GetPropertyByID(c *gin.Context) {
	propertyID := c.Param("property_id")
	db := database.GetDB()

	var property models.Property
	if err := db.Where("id = ? AND agency_id = ?", propertyID, c.GetString("agency_id")).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Property not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch property", err)
		return
	}

	c.JSON(http.StatusOK, property)
}

// UpdateProperty handles updating a listing
func UpdateProperty(c *gin.Context) {
	propertyID := c.Param("property_id")
	db := database.GetDB()

	var property models.Property
	if err := db.Where("id = ? AND agency_id = ?", propertyID, c.GetString("agency_id")).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Property not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch property", err)
		return
	}

	var req models.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Address != nil {
		updates["address"] = *req.Address
		// Re-geocode when the address changes
		if result, err := services.GeocodeAddress(*req.Address); err != nil {
			log.Printf("Warning: failed to geocode %q: %v", *req.Address, err)
		} else {
			updates["latitude"] = result.Geometry.Location.Lat
			updates["longitude"] = result.Geometry.Location.Lng
			updates["place_id"] = result.PlaceID
		}
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.PostalCode != nil {
		updates["postal_code"] = *req.PostalCode
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Bedrooms != nil {
		updates["bedrooms"] = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		updates["bathrooms"] = *req.Bathrooms
	}
	if req.AreaSqm != nil {
		updates["area_sqm"] = *req.AreaSqm
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.PlaceID != nil {
		updates["place_id"] = *req.PlaceID
	}
	if req.Features != nil {
		updates["features"] = datatypes.NewJSONSlice(*req.Features)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := db.Model(&property).Updates(updates).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to update property", err)
			return
		}
	}

	c.JSON(http.StatusOK, property)
}

// UploadPropertyPhoto attaches a photo to a listing
func UploadPropertyPhoto(c *gin.Context) {
	propertyID := c.Param("property_id")
	db := database.GetDB()

	var property models.Property
	if err := db.Where("id = ? AND agency_id = ?", propertyID, c.GetString("agency_id")).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Property not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch property", err)
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		handleError(c, http.StatusBadRequest, "Photo file is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to read photo", err)
		return
	}
	defer file.Close()

	imageService, err := services.NewImageService()
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Photo storage is not configured", err)
		return
	}

	if err := imageService.ValidateImageFile(file, MaxPhotoSize); err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	url, err := imageService.UploadPropertyPhoto(file, fileHeader.Filename, property.ID)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to upload photo", err)
		return
	}

	photos := append([]string(property.Photos), url)
	if err := db.Model(&property).Update("photos", datatypes.NewJSONSlice(photos)).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to save photo reference", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url, "photos": photos})
}

// DeleteProperty soft-deletes a listing
func DeleteProperty(c *gin.Context) {
	propertyID := c.Param("property_id")
	db := database.GetDB()

	result := db.Where("id = ? AND agency_id = ?", propertyID, c.GetString("agency_id")).Delete(&models.Property{})
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete property", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Property deleted"})
}
