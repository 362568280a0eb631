package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"gensethub/database"
)

func serviceRoutes(r *gin.Engine) {
	r.POST("/service-requests", CreateServiceRequest)
	r.GET("/service-requests", GetServiceRequests)
	r.GET("/service-requests/customer/:customerId", GetCustomerServiceRequests)
	r.GET("/service-requests/:id", GetServiceRequestByID)
	r.PATCH("/service-requests/:id/assign", AssignTechnician)
	r.PATCH("/service-requests/:id/status", UpdateServiceStatus)
	r.PATCH("/service-requests/:id/complete", CompleteService)
	r.PATCH("/service-requests/:id/feedback", SubmitFeedback)
}

func createTicketBody() map[string]interface{} {
	return map[string]interface{}{
		"service_type": "Repair",
		"description":  "Genset not starting under load",
	}
}

func TestCreateServiceRequestDefaults(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)

	r := testRouter(customer.ID, database.RoleCustomer, serviceRoutes)
	w := performRequest(t, r, "POST", "/service-requests", createTicketBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var ticket database.ServiceRequest
	require.NoError(t, database.DB.First(&ticket).Error)
	require.True(t, strings.HasPrefix(ticket.TicketNumber, "SR-"))
	require.Equal(t, database.ServiceStatusOpen, ticket.Status)
	require.Equal(t, database.PriorityMedium, ticket.Priority)
	require.Equal(t, customer.ID, ticket.CustomerID)
	require.Nil(t, ticket.GensetID)
}

func TestCreateServiceRequestUnknownGenset(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)

	body := createTicketBody()
	body["genset_id"] = 9999

	r := testRouter(customer.ID, database.RoleCustomer, serviceRoutes)
	w := performRequest(t, r, "POST", "/service-requests", body)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateServiceRequestInvalidType(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)

	body := createTicketBody()
	body["service_type"] = "Tuning"

	r := testRouter(customer.ID, database.RoleCustomer, serviceRoutes)
	w := performRequest(t, r, "POST", "/service-requests", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetServiceRequestsScopedToCustomer(t *testing.T) {
	setupTestDB(t)
	asha := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	ravi := createTestUser(t, "Ravi", "ravi@example.com", database.RoleCustomer)
	admin := createTestUser(t, "Admin", "admin@example.com", database.RoleAdmin)

	for _, customer := range []database.User{asha, ravi} {
		r := testRouter(customer.ID, database.RoleCustomer, serviceRoutes)
		w := performRequest(t, r, "POST", "/service-requests", createTicketBody())
		require.Equal(t, http.StatusCreated, w.Code)
	}

	r := testRouter(asha.ID, database.RoleCustomer, serviceRoutes)
	w := performRequest(t, r, "GET", "/service-requests", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), decodeBody(t, w)["count"])

	adminRouter := testRouter(admin.ID, database.RoleAdmin, serviceRoutes)
	w = performRequest(t, adminRouter, "GET", "/service-requests", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(2), decodeBody(t, w)["count"])
}

func TestAssignTechnician(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	tech := createTestUser(t, "Tech", "tech@example.com", database.RoleTechnician)
	admin := createTestUser(t, "Admin", "admin@example.com", database.RoleAdmin)

	r := testRouter(customer.ID, database.RoleCustomer, serviceRoutes)
	w := performRequest(t, r, "POST", "/service-requests", createTicketBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var ticket database.ServiceRequest
	require.NoError(t, database.DB.First(&ticket).Error)

	adminRouter := testRouter(admin.ID, database.RoleAdmin, serviceRoutes)
	w = performRequest(t, adminRouter, "PATCH", fmt.Sprintf("/service-requests/%d/assign", ticket.ID),
		map[string]interface{}{"technician_id": tech.ID})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.First(&ticket, ticket.ID).Error)
	require.Equal(t, database.ServiceStatusAssigned, ticket.Status)
	require.NotNil(t, ticket.TechnicianID)
	require.Equal(t, tech.ID, *ticket.TechnicianID)
}

func TestCompleteServiceReplacesParts(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	admin := createTestUser(t, "Admin", "admin@example.com", database.RoleAdmin)

	r := testRouter(customer.ID, database.RoleCustomer, serviceRoutes)
	w := performRequest(t, r, "POST", "/service-requests", createTicketBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var ticket database.ServiceRequest
	require.NoError(t, database.DB.First(&ticket).Error)

	adminRouter := testRouter(admin.ID, database.RoleAdmin, serviceRoutes)
	w = performRequest(t, adminRouter, "PATCH", fmt.Sprintf("/service-requests/%d/complete", ticket.ID),
		map[string]interface{}{
			"actual_cost": 4200.0,
			"parts_used": []map[string]interface{}{
				{"part_name": "Fuel filter", "quantity": 1, "cost": 700},
				{"part_name": "Starter relay", "quantity": 1, "cost": 1500},
			},
			"technician_notes": "Replaced filter and relay",
		})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.Preload("PartsUsed").First(&ticket, ticket.ID).Error)
	require.Equal(t, database.ServiceStatusCompleted, ticket.Status)
	require.NotNil(t, ticket.CompletedDate)
	require.InDelta(t, 4200.0, ticket.ActualCost, 0.01)
	require.Len(t, ticket.PartsUsed, 2)

	// Completing again replaces the parts list instead of appending
	w = performRequest(t, adminRouter, "PATCH", fmt.Sprintf("/service-requests/%d/complete", ticket.ID),
		map[string]interface{}{
			"actual_cost": 900.0,
			"parts_used": []map[string]interface{}{
				{"part_name": "Fuel filter", "quantity": 1, "cost": 700},
			},
		})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.Preload("PartsUsed").First(&ticket, ticket.ID).Error)
	require.Len(t, ticket.PartsUsed, 1)
	require.InDelta(t, 900.0, ticket.ActualCost, 0.01)
}

func TestSubmitFeedback(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	stranger := createTestUser(t, "Ravi", "ravi@example.com", database.RoleCustomer)

	r := testRouter(customer.ID, database.RoleCustomer, serviceRoutes)
	w := performRequest(t, r, "POST", "/service-requests", createTicketBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var ticket database.ServiceRequest
	require.NoError(t, database.DB.First(&ticket).Error)

	path := fmt.Sprintf("/service-requests/%d/feedback", ticket.ID)

	w = performRequest(t, r, "PATCH", path, map[string]interface{}{"rating": 0})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, r, "PATCH", path, map[string]interface{}{"rating": 6})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, r, "PATCH", path, map[string]interface{}{"rating": 5, "comment": "Great service"})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.First(&ticket, ticket.ID).Error)
	require.NotNil(t, ticket.Rating)
	require.Equal(t, 5, *ticket.Rating)
	require.Equal(t, "Great service", ticket.Feedback)

	// Resubmitting overwrites
	w = performRequest(t, r, "PATCH", path, map[string]interface{}{"rating": 3, "comment": "Relay failed again"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, database.DB.First(&ticket, ticket.ID).Error)
	require.Equal(t, 3, *ticket.Rating)
	require.Equal(t, "Relay failed again", ticket.Feedback)

	// Another customer cannot rate someone else's ticket
	other := testRouter(stranger.ID, database.RoleCustomer, serviceRoutes)
	w = performRequest(t, other, "PATCH", path, map[string]interface{}{"rating": 1})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetCustomerServiceRequestsAccess(t *testing.T) {
	setupTestDB(t)
	asha := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	ravi := createTestUser(t, "Ravi", "ravi@example.com", database.RoleCustomer)

	r := testRouter(asha.ID, database.RoleCustomer, serviceRoutes)
	w := performRequest(t, r, "POST", "/service-requests", createTicketBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = performRequest(t, r, "GET", fmt.Sprintf("/service-requests/customer/%d", asha.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), decodeBody(t, w)["count"])

	other := testRouter(ravi.ID, database.RoleCustomer, serviceRoutes)
	w = performRequest(t, other, "GET", fmt.Sprintf("/service-requests/customer/%d", asha.ID), nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}
