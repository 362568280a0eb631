package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gensethub/database"
)

// ServiceRequestCreate contains the data for ticket creation
type ServiceRequestCreate struct {
	GensetID      *uint            `json:"genset_id"`
	ServiceType   string           `json:"service_type" binding:"required,oneof=Installation Repair Maintenance Inspection Emergency Warranty"`
	Priority      string           `json:"priority" binding:"omitempty,oneof=Low Medium High Critical"`
	Description   string           `json:"description" binding:"required"`
	ContactNumber string           `json:"contact_number"`
	Location      database.Address `json:"service_location"`
	EstimatedCost float64          `json:"estimated_cost" binding:"gte=0"`
	ScheduledDate *time.Time       `json:"scheduled_date"`
}

// AssignTechnicianRequest contains assignment data
type AssignTechnicianRequest struct {
	TechnicianID  uint       `json:"technician_id" binding:"required"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

// UpdateServiceStatusRequest contains the target ticket status
type UpdateServiceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Open Assigned 'In Progress' 'On Hold' Completed Cancelled"`
}

// ServicePartRequest is one part consumed during completion
type ServicePartRequest struct {
	PartName string  `json:"part_name" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Cost     float64 `json:"cost" binding:"gte=0"`
}

// CompleteServiceRequest contains completion data
type CompleteServiceRequest struct {
	ActualCost      float64              `json:"actual_cost" binding:"gte=0"`
	PartsUsed       []ServicePartRequest `json:"parts_used" binding:"dive"`
	TechnicianNotes string               `json:"technician_notes"`
}

// FeedbackRequest contains the customer rating and comment
type FeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// canAccessTicket is the single ownership/capability check for tickets:
// staff may act on any ticket, customers only on their own.
func canAccessTicket(callerID uint, role string, ticket *database.ServiceRequest) bool {
	return database.IsStaffRole(role) || ticket.CustomerID == callerID
}

// CreateServiceRequest creates a new service ticket for the caller
func CreateServiceRequest(c *gin.Context) {
	callerID, _, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var request ServiceRequestCreate
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Service type and description are required"})
		return
	}

	// An empty genset reference is allowed; a present one must resolve
	if request.GensetID != nil {
		if *request.GensetID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid genset ID"})
			return
		}
		var count int64
		if err := database.DB.Model(&database.Genset{}).Where("id = ?", *request.GensetID).Count(&count).Error; err != nil {
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
			return
		}
		if count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Genset not found"})
			return
		}
	}

	priority := request.Priority
	if priority == "" {
		priority = database.PriorityMedium
	}

	var ticket database.ServiceRequest

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		ticketNumber, err := database.NextTicketNumber(tx)
		if err != nil {
			return err
		}

		ticket = database.ServiceRequest{
			CustomerID:      callerID,
			TicketNumber:    ticketNumber,
			GensetID:        request.GensetID,
			ServiceType:     request.ServiceType,
			Priority:        priority,
			Description:     request.Description,
			ContactNumber:   request.ContactNumber,
			Status:          database.ServiceStatusOpen,
			ScheduledDate:   request.ScheduledDate,
			ServiceLocation: request.Location,
			EstimatedCost:   request.EstimatedCost,
		}
		return tx.Create(&ticket).Error
	})
	if err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create service request"})
		return
	}

	if err := database.DB.Preload("Customer").First(&ticket, ticket.ID).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error retrieving service request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Service request created", "data": ticket})
}

// GetServiceRequests lists tickets with filters; customers are implicitly
// restricted to their own
func GetServiceRequests(c *gin.Context) {
	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	query := database.DB.Model(&database.ServiceRequest{}).
		Preload("Customer").
		Preload("Technician").
		Preload("Genset").
		Preload("PartsUsed")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if serviceType := c.Query("serviceType"); serviceType != "" {
		query = query.Where("service_type = ?", serviceType)
	}
	if priority := c.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}

	if database.IsStaffRole(role) {
		if customerID := c.Query("customerId"); customerID != "" {
			query = query.Where("customer_id = ?", customerID)
		}
	} else {
		query = query.Where("customer_id = ?", callerID)
	}

	var tickets []database.ServiceRequest
	if err := query.Order("created_at DESC").Find(&tickets).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch service requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(tickets), "data": tickets})
}

// GetCustomerServiceRequests lists a customer's tickets (staff or self)
func GetCustomerServiceRequests(c *gin.Context) {
	customerID, err := strconv.ParseUint(c.Param("customerId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid customer ID"})
		return
	}

	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}
	if !database.IsStaffRole(role) && callerID != uint(customerID) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
		return
	}

	var tickets []database.ServiceRequest
	if err := database.DB.Preload("Customer").Preload("Technician").Preload("Genset").Preload("PartsUsed").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&tickets).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch service requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(tickets), "data": tickets})
}

// GetServiceRequestByID returns a single ticket (staff or owner)
func GetServiceRequestByID(c *gin.Context) {
	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var ticket database.ServiceRequest
	if err := database.DB.Preload("Customer").Preload("Technician").Preload("Genset").Preload("PartsUsed").
		First(&ticket, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Service request not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch service request"})
		return
	}

	if !canAccessTicket(callerID, role, &ticket) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": ticket})
}

// AssignTechnician sets the technician, scheduled date and Assigned status
// (staff only). The technician reference is accepted as-is.
func AssignTechnician(c *gin.Context) {
	var request AssignTechnicianRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Technician ID is required"})
		return
	}

	var ticket database.ServiceRequest
	if err := database.DB.First(&ticket, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Service request not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	ticket.TechnicianID = &request.TechnicianID
	ticket.ScheduledDate = request.ScheduledDate
	ticket.Status = database.ServiceStatusAssigned

	if err := database.DB.Save(&ticket).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to assign technician"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Technician assigned successfully", "data": ticket})
}

// UpdateServiceStatus sets the ticket status (staff only, any value allowed)
func UpdateServiceStatus(c *gin.Context) {
	var request UpdateServiceStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid status"})
		return
	}

	var ticket database.ServiceRequest
	if err := database.DB.First(&ticket, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Service request not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	if err := database.DB.Model(&ticket).Update("status", request.Status).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update status"})
		return
	}
	ticket.Status = request.Status

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status updated successfully", "data": ticket})
}

// CompleteService marks a ticket Completed with cost, parts and notes
// (staff only). No prior state is required.
func CompleteService(c *gin.Context) {
	var request CompleteServiceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
		return
	}

	var ticket database.ServiceRequest

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ticket, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Service request not found"})
				return err
			}
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
			return err
		}

		now := time.Now()
		ticket.Status = database.ServiceStatusCompleted
		ticket.CompletedDate = &now
		ticket.ActualCost = request.ActualCost
		ticket.TechnicianNotes = request.TechnicianNotes

		if err := tx.Save(&ticket).Error; err != nil {
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to complete service"})
			return err
		}

		// Parts list is replaced wholesale on every completion
		if err := tx.Where("service_request_id = ?", ticket.ID).Delete(&database.ServicePart{}).Error; err != nil {
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to complete service"})
			return err
		}
		for _, part := range request.PartsUsed {
			record := database.ServicePart{
				ServiceRequestID: ticket.ID,
				PartName:         part.PartName,
				Quantity:         part.Quantity,
				Cost:             part.Cost,
			}
			if err := tx.Create(&record).Error; err != nil {
				log.Printf("Database error: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to complete service"})
				return err
			}
		}
		return nil
	})
	if err != nil {
		return
	}

	if err := database.DB.Preload("PartsUsed").First(&ticket, ticket.ID).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error retrieving service request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Service completed successfully", "data": ticket})
}

// SubmitFeedback attaches a customer rating to a ticket (owner or staff).
// Resubmitting overwrites the previous feedback.
func SubmitFeedback(c *gin.Context) {
	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var request FeedbackRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Rating must be between 1 and 5"})
		return
	}
	if request.Rating < 1 || request.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Rating must be between 1 and 5"})
		return
	}

	var ticket database.ServiceRequest
	if err := database.DB.First(&ticket, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Service request not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	if !canAccessTicket(callerID, role, &ticket) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
		return
	}

	rating := request.Rating
	if err := database.DB.Model(&ticket).Updates(map[string]interface{}{
		"rating":   rating,
		"feedback": request.Comment,
	}).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to add feedback"})
		return
	}
	ticket.Rating = &rating
	ticket.Feedback = request.Comment

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Feedback added successfully", "data": ticket})
}
