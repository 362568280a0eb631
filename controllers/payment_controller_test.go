package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"gensethub/config"
	"gensethub/database"
)

func paymentRoutes(r *gin.Engine) {
	r.POST("/payments/verify", VerifyPayment)
}

func signPayment(orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(config.AppConfig.RazorpaySecret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

func seedUnpaidOrder(t *testing.T, customerID uint) database.SalesOrder {
	t.Helper()
	order := database.SalesOrder{
		CustomerID:    customerID,
		OrderNumber:   "SO-1-0001",
		Subtotal:      250000,
		Tax:           45000,
		TotalAmount:   295000,
		Status:        database.OrderStatusConfirmed,
		PaymentStatus: database.PaymentStatusPending,
		PaymentMethod: "Cash",
	}
	require.NoError(t, database.DB.Create(&order).Error)
	return order
}

func TestVerifyPaymentMarksOrderPaid(t *testing.T) {
	setupTestDB(t)
	config.AppConfig.RazorpaySecret = "test-secret"
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	order := seedUnpaidOrder(t, customer.ID)

	r := testRouter(customer.ID, database.RoleCustomer, paymentRoutes)
	w := performRequest(t, r, "POST", "/payments/verify", map[string]interface{}{
		"order_id":       "order_abc",
		"payment_id":     "pay_xyz",
		"signature":      signPayment("order_abc", "pay_xyz"),
		"sales_order_id": order.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.First(&order, order.ID).Error)
	require.Equal(t, database.PaymentStatusCompleted, order.PaymentStatus)
	require.Equal(t, "razorpay", order.PaymentMethod)

	var audit database.Audit
	require.NoError(t, database.DB.Where("action = ?", "payment_verified").First(&audit).Error)
	require.Equal(t, order.ID, audit.EntityID)
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	setupTestDB(t)
	config.AppConfig.RazorpaySecret = "test-secret"
	customer := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	order := seedUnpaidOrder(t, customer.ID)

	r := testRouter(customer.ID, database.RoleCustomer, paymentRoutes)
	w := performRequest(t, r, "POST", "/payments/verify", map[string]interface{}{
		"order_id":       "order_abc",
		"payment_id":     "pay_xyz",
		"signature":      "deadbeef",
		"sales_order_id": order.ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, database.DB.First(&order, order.ID).Error)
	require.Equal(t, database.PaymentStatusPending, order.PaymentStatus)
}

func TestVerifyPaymentWrongCustomer(t *testing.T) {
	setupTestDB(t)
	config.AppConfig.RazorpaySecret = "test-secret"
	owner := createTestUser(t, "Asha", "asha@example.com", database.RoleCustomer)
	stranger := createTestUser(t, "Ravi", "ravi@example.com", database.RoleCustomer)
	order := seedUnpaidOrder(t, owner.ID)

	r := testRouter(stranger.ID, database.RoleCustomer, paymentRoutes)
	w := performRequest(t, r, "POST", "/payments/verify", map[string]interface{}{
		"order_id":       "order_abc",
		"payment_id":     "pay_xyz",
		"signature":      signPayment("order_abc", "pay_xyz"),
		"sales_order_id": order.ID,
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}
