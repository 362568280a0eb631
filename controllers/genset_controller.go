package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gensethub/database"
)

// GensetRequest contains the data for catalog item creation and update
type GensetRequest struct {
	ModelName      string  `json:"model" binding:"required"`
	Brand          string  `json:"brand" binding:"required,oneof=Cummins Caterpillar Kohler Perkins Honda Generac Kirloskar 'Ashok Leyland' Other"`
	Capacity       float64 `json:"capacity" binding:"required,gt=0"`
	FuelType       string  `json:"fuel_type" binding:"required,oneof=Diesel 'Natural Gas' Propane Gasoline Petrol Gas CNG LPG Bi-Fuel"`
	Phase          string  `json:"phase" binding:"required,oneof='Single Phase' 'Three Phase'"`
	Price          float64 `json:"price" binding:"gte=0"`
	Condition      string  `json:"condition" binding:"omitempty,oneof=New Used Refurbished"`
	Voltage        string  `json:"voltage"`
	Frequency      string  `json:"frequency"`
	EngineModel    string  `json:"engine_model"`
	RunningHours   int     `json:"running_hours" binding:"gte=0"`
	Weight         float64 `json:"weight" binding:"gte=0"`
	Stock          int     `json:"stock" binding:"gte=0"`
	ImageURL       string  `json:"image_url"`
	WarrantyMonths int     `json:"warranty_months" binding:"gte=0"`
	IsActive       *bool   `json:"is_active"`
}

// GetGensets lists active catalog items with optional filters
func GetGensets(c *gin.Context) {
	query := database.DB.Model(&database.Genset{}).Where("is_active = ?", true)

	if brand := c.Query("brand"); brand != "" {
		query = query.Where("brand = ?", brand)
	}
	if fuelType := c.Query("fuelType"); fuelType != "" {
		query = query.Where("fuel_type = ?", fuelType)
	}
	if condition := c.Query("condition"); condition != "" {
		query = query.Where("condition = ?", condition)
	}
	if phase := c.Query("phase"); phase != "" {
		query = query.Where("phase = ?", phase)
	}
	if minCapacity := c.Query("minCapacity"); minCapacity != "" {
		if v, err := strconv.ParseFloat(minCapacity, 64); err == nil {
			query = query.Where("capacity >= ?", v)
		}
	}
	if maxCapacity := c.Query("maxCapacity"); maxCapacity != "" {
		if v, err := strconv.ParseFloat(maxCapacity, 64); err == nil {
			query = query.Where("capacity <= ?", v)
		}
	}

	var gensets []database.Genset
	if err := query.Order("created_at DESC").Find(&gensets).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch gensets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(gensets), "data": gensets})
}

// GetGensetByID returns a single catalog item
func GetGensetByID(c *gin.Context) {
	var genset database.Genset
	if err := database.DB.First(&genset, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Genset not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch genset"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": genset})
}

// CreateGenset creates a new catalog item (Admin only)
func CreateGenset(c *gin.Context) {
	var request GensetRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	genset := gensetFromRequest(request)
	if err := database.DB.Create(&genset).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create genset"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Genset created successfully", "data": genset})
}

// UpdateGenset updates an existing catalog item (Admin only)
func UpdateGenset(c *gin.Context) {
	var genset database.Genset
	if err := database.DB.First(&genset, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Genset not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch genset"})
		return
	}

	var request GensetRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	updated := gensetFromRequest(request)
	updated.ID = genset.ID
	updated.CreatedAt = genset.CreatedAt

	if err := database.DB.Save(&updated).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update genset"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Genset updated successfully", "data": updated})
}

// DeactivateGenset soft deletes a catalog item via the active flag (Admin only)
func DeactivateGenset(c *gin.Context) {
	var genset database.Genset
	if err := database.DB.First(&genset, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Genset not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	if err := database.DB.Model(&genset).Update("is_active", false).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to deactivate genset"})
		return
	}
	genset.IsActive = false

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Genset deactivated successfully", "data": genset})
}

// DeleteGenset permanently removes a catalog item (Admin only)
func DeleteGenset(c *gin.Context) {
	var genset database.Genset
	if err := database.DB.First(&genset, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Genset not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	if err := database.DB.Unscoped().Delete(&genset).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete genset"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Genset deleted successfully"})
}

func gensetFromRequest(request GensetRequest) database.Genset {
	condition := request.Condition
	if condition == "" {
		condition = "New"
	}
	isActive := true
	if request.IsActive != nil {
		isActive = *request.IsActive
	}
	return database.Genset{
		ModelName:      request.ModelName,
		Brand:          request.Brand,
		Capacity:       request.Capacity,
		FuelType:       request.FuelType,
		Phase:          request.Phase,
		Price:          request.Price,
		Condition:      condition,
		Voltage:        request.Voltage,
		Frequency:      request.Frequency,
		EngineModel:    request.EngineModel,
		RunningHours:   request.RunningHours,
		Weight:         request.Weight,
		Stock:          request.Stock,
		ImageURL:       request.ImageURL,
		WarrantyMonths: request.WarrantyMonths,
		IsActive:       isActive,
	}
}
