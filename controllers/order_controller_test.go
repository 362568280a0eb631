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

func orderRoutes(r *gin.Engine) {
	r.POST("/orders", CreateOrder)
	r.GET("/orders", GetOrders)
	r.GET("/orders/:id", GetOrderByID)
	r.PATCH("/orders/:id/status", UpdateOrderStatus)
	r.PATCH("/orders/:id/payment", UpdatePaymentStatus)
	r.PATCH("/orders/:id/cancel", CancelOrder)
	r.DELETE("/orders/:id", DeleteOrder)
}

func createOrderBody(gensetID uint, quantity int) map[string]interface{} {
	return map[string]interface{}{
		"items": []map[string]interface{}{
			{"genset_id": gensetID, "quantity": quantity},
		},
		"payment_method": "Cash",
	}
}

func TestCreateOrderComputesTotals(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	genset := createTestGenset(t, 250000, 10)

	r := testRouter(customer.ID, database.RoleCustomer, orderRoutes)
	w := performRequest(t, r, "POST", "/orders", createOrderBody(genset.ID, 3))
	require.Equal(t, http.StatusCreated, w.Code)

	var order database.SalesOrder
	require.NoError(t, database.DB.Preload("Items").First(&order).Error)

	require.True(t, strings.HasPrefix(order.OrderNumber, "SO-"))
	require.Equal(t, database.OrderStatusQuotation, order.Status)
	require.Equal(t, database.PaymentStatusPending, order.PaymentStatus)
	require.Equal(t, customer.ID, order.CustomerID)
	require.Len(t, order.Items, 1)
	require.Equal(t, 250000.0, order.Items[0].UnitPrice)

	require.InDelta(t, 750000.0, order.Subtotal, 0.01)
	require.InDelta(t, 135000.0, order.Tax, 0.01)
	require.InDelta(t, 885000.0, order.TotalAmount, 0.01)

	// Creating a quotation must not touch inventory
	var reloaded database.Genset
	require.NoError(t, database.DB.First(&reloaded, genset.ID).Error)
	require.Equal(t, 10, reloaded.Stock)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	genset := createTestGenset(t, 250000, 2)

	r := testRouter(customer.ID, database.RoleCustomer, orderRoutes)
	w := performRequest(t, r, "POST", "/orders", createOrderBody(genset.ID, 3))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var orderCount, itemCount int64
	require.NoError(t, database.DB.Model(&database.SalesOrder{}).Count(&orderCount).Error)
	require.NoError(t, database.DB.Model(&database.OrderItem{}).Count(&itemCount).Error)
	require.Zero(t, orderCount)
	require.Zero(t, itemCount)
}

func TestCreateOrderUnknownGenset(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)

	r := testRouter(customer.ID, database.RoleCustomer, orderRoutes)
	w := performRequest(t, r, "POST", "/orders", createOrderBody(9999, 1))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomerCannotOrderForOthers(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	other := createTestUser(t, "Ravi", "ravi@example.com", database.RoleCustomer)
	genset := createTestGenset(t, 250000, 10)

	body := createOrderBody(genset.ID, 1)
	body["customer_id"] = other.ID

	r := testRouter(customer.ID, database.RoleCustomer, orderRoutes)
	w := performRequest(t, r, "POST", "/orders", body)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestConfirmOrderReservesStockAndCancelRestores(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	admin := createTestUser(t, "Admin", "admin@example.com", database.RoleAdmin)
	genset := createTestGenset(t, 250000, 10)

	customerRouter := testRouter(customer.ID, database.RoleCustomer, orderRoutes)
	w := performRequest(t, customerRouter, "POST", "/orders", createOrderBody(genset.ID, 3))
	require.Equal(t, http.StatusCreated, w.Code)

	var order database.SalesOrder
	require.NoError(t, database.DB.First(&order).Error)

	adminRouter := testRouter(admin.ID, database.RoleAdmin, orderRoutes)
	w = performRequest(t, adminRouter, "PATCH", fmt.Sprintf("/orders/%d/status", order.ID),
		map[string]string{"status": database.OrderStatusConfirmed})
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded database.Genset
	require.NoError(t, database.DB.First(&reloaded, genset.ID).Error)
	require.Equal(t, 7, reloaded.Stock)

	// Cancelling a confirmed order puts the units back
	w = performRequest(t, customerRouter, "PATCH", fmt.Sprintf("/orders/%d/cancel", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.First(&order, order.ID).Error)
	require.Equal(t, database.OrderStatusCancelled, order.Status)
	require.NoError(t, database.DB.First(&reloaded, genset.ID).Error)
	require.Equal(t, 10, reloaded.Stock)

	// A second cancel is a no-op on inventory
	w = performRequest(t, customerRouter, "PATCH", fmt.Sprintf("/orders/%d/cancel", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, database.DB.First(&reloaded, genset.ID).Error)
	require.Equal(t, 10, reloaded.Stock)
}

func TestConfirmOrderInsufficientStockKeepsStatus(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	admin := createTestUser(t, "Admin", "admin@example.com", database.RoleAdmin)
	genset := createTestGenset(t, 250000, 10)

	customerRouter := testRouter(customer.ID, database.RoleCustomer, orderRoutes)
	w := performRequest(t, customerRouter, "POST", "/orders", createOrderBody(genset.ID, 3))
	require.Equal(t, http.StatusCreated, w.Code)

	var order database.SalesOrder
	require.NoError(t, database.DB.First(&order).Error)

	// Stock dropped between quotation and confirmation
	require.NoError(t, database.DB.Model(&database.Genset{}).
		Where("id = ?", genset.ID).Update("stock", 1).Error)

	adminRouter := testRouter(admin.ID, database.RoleAdmin, orderRoutes)
	w = performRequest(t, adminRouter, "PATCH", fmt.Sprintf("/orders/%d/status", order.ID),
		map[string]string{"status": database.OrderStatusConfirmed})
	require.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, database.DB.First(&order, order.ID).Error)
	require.Equal(t, database.OrderStatusQuotation, order.Status)

	var reloaded database.Genset
	require.NoError(t, database.DB.First(&reloaded, genset.ID).Error)
	require.Equal(t, 1, reloaded.Stock)
}

func TestDeleteConfirmedOrderRejected(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	admin := createTestUser(t, "Admin", "admin@example.com", database.RoleAdmin)
	genset := createTestGenset(t, 250000, 10)

	customerRouter := testRouter(customer.ID, database.RoleCustomer, orderRoutes)
	w := performRequest(t, customerRouter, "POST", "/orders", createOrderBody(genset.ID, 2))
	require.Equal(t, http.StatusCreated, w.Code)

	var order database.SalesOrder
	require.NoError(t, database.DB.First(&order).Error)

	adminRouter := testRouter(admin.ID, database.RoleAdmin, orderRoutes)
	w = performRequest(t, adminRouter, "PATCH", fmt.Sprintf("/orders/%d/status", order.ID),
		map[string]string{"status": database.OrderStatusConfirmed})
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(t, adminRouter, "DELETE", fmt.Sprintf("/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusConflict, w.Code)

	var count int64
	require.NoError(t, database.DB.Model(&database.SalesOrder{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	// Cancel first, then delete goes through
	w = performRequest(t, adminRouter, "PATCH", fmt.Sprintf("/orders/%d/cancel", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(t, adminRouter, "DELETE", fmt.Sprintf("/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.Model(&database.SalesOrder{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGetOrdersScopedToCustomer(t *testing.T) {
	setupTestDB(t)
	asha := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	ravi := createTestUser(t, "Ravi", "ravi@example.com", database.RoleCustomer)
	admin := createTestUser(t, "Admin", "admin@example.com", database.RoleAdmin)
	genset := createTestGenset(t, 250000, 10)

	for _, customer := range []database.User{asha, ravi} {
		r := testRouter(customer.ID, database.RoleCustomer, orderRoutes)
		w := performRequest(t, r, "POST", "/orders", createOrderBody(genset.ID, 1))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	r := testRouter(asha.ID, database.RoleCustomer, orderRoutes)
	w := performRequest(t, r, "GET", "/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), decodeBody(t, w)["count"])

	adminRouter := testRouter(admin.ID, database.RoleAdmin, orderRoutes)
	w = performRequest(t, adminRouter, "GET", "/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(2), decodeBody(t, w)["count"])
}

func TestGetOrderByIDOwnership(t *testing.T) {
	setupTestDB(t)
	asha := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	ravi := createTestUser(t, "Ravi", "ravi@example.com", database.RoleCustomer)
	genset := createTestGenset(t, 250000, 10)

	r := testRouter(asha.ID, database.RoleCustomer, orderRoutes)
	w := performRequest(t, r, "POST", "/orders", createOrderBody(genset.ID, 1))
	require.Equal(t, http.StatusCreated, w.Code)

	var order database.SalesOrder
	require.NoError(t, database.DB.First(&order).Error)

	w = performRequest(t, r, "GET", fmt.Sprintf("/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	stranger := testRouter(ravi.ID, database.RoleCustomer, orderRoutes)
	w = performRequest(t, stranger, "GET", fmt.Sprintf("/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdatePaymentStatus(t *testing.T) {
	setupTestDB(t)
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	admin := createTestUser(t, "Admin", "admin@example.com", database.RoleAdmin)
	genset := createTestGenset(t, 250000, 10)

	r := testRouter(customer.ID, database.RoleCustomer, orderRoutes)
	w := performRequest(t, r, "POST", "/orders", createOrderBody(genset.ID, 1))
	require.Equal(t, http.StatusCreated, w.Code)

	var order database.SalesOrder
	require.NoError(t, database.DB.First(&order).Error)

	adminRouter := testRouter(admin.ID, database.RoleAdmin, orderRoutes)
	w = performRequest(t, adminRouter, "PATCH", fmt.Sprintf("/orders/%d/payment", order.ID),
		map[string]string{"payment_status": database.PaymentStatusCompleted})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.First(&order, order.ID).Error)
	require.Equal(t, database.PaymentStatusCompleted, order.PaymentStatus)

	w = performRequest(t, adminRouter, "PATCH", fmt.Sprintf("/orders/%d/payment", order.ID),
		map[string]string{"payment_status": "Bogus"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
