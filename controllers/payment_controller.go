package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/razorpay/razorpay-go"
	"gorm.io/gorm"

	"gensethub/config"
	"gensethub/database"
)

// RazorpayOrderRequest contains data for creating a Razorpay order
type RazorpayOrderRequest struct {
	SalesOrderID uint `json:"sales_order_id" binding:"required"`
}

// PaymentVerificationRequest contains data for verifying a payment
type PaymentVerificationRequest struct {
	PaymentID    string `json:"payment_id" binding:"required"`
	OrderID      string `json:"order_id" binding:"required"`
	Signature    string `json:"signature" binding:"required"`
	SalesOrderID uint   `json:"sales_order_id" binding:"required"`
}

// GeneratePaymentOrder creates a Razorpay order for an unpaid sales order.
// The caller must own the order.
func GeneratePaymentOrder(c *gin.Context) {
	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var request RazorpayOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
		return
	}

	var order database.SalesOrder
	if err := database.DB.First(&order, request.SalesOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	if !database.IsStaffRole(role) && order.CustomerID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "This order doesn't belong to you"})
		return
	}

	if order.PaymentStatus == database.PaymentStatusCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Order is already paid"})
		return
	}
	if order.Status == database.OrderStatusCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Cannot generate payment for a cancelled order"})
		return
	}

	client := razorpay.NewClient(config.AppConfig.RazorpayKey, config.AppConfig.RazorpaySecret)

	// Razorpay amounts are in the smallest currency unit
	amountInPaise := int64(order.TotalAmount * 100)

	data := map[string]interface{}{
		"amount":   amountInPaise,
		"currency": "INR",
		"receipt":  order.OrderNumber,
		"notes": map[string]interface{}{
			"customer_id":    order.CustomerID,
			"sales_order_id": order.ID,
		},
	}

	razorpayOrder, err := client.Order.Create(data, nil)
	if err != nil {
		log.Printf("Razorpay order creation error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error creating payment order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"razorpay_order_id": razorpayOrder["id"],
		"amount":            order.TotalAmount,
		"currency":          "INR",
		"key":               config.AppConfig.RazorpayKey,
		"sales_order_id":    order.ID,
	})
}

// VerifyPayment checks the Razorpay signature and marks the sales order paid
func VerifyPayment(c *gin.Context) {
	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var request PaymentVerificationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
		return
	}

	if !verifyRazorpaySignature(request.OrderID+"|"+request.PaymentID, request.Signature, config.AppConfig.RazorpaySecret) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payment signature"})
		return
	}

	var order database.SalesOrder
	if err := database.DB.First(&order, request.SalesOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	if !database.IsStaffRole(role) && order.CustomerID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "This order doesn't belong to you"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Updates(map[string]interface{}{
			"payment_status": database.PaymentStatusCompleted,
			"payment_method": "razorpay",
		}).Error; err != nil {
			return err
		}
		detail := fmt.Sprintf("razorpay_order=%s payment=%s", request.OrderID, request.PaymentID)
		writeAudit(tx, callerID, "payment_verified", "sales_order", order.ID, detail)
		return nil
	})
	if err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error updating payment status"})
		return
	}
	order.PaymentStatus = database.PaymentStatusCompleted
	order.PaymentMethod = "razorpay"

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Payment verified successfully", "data": order})
}

func verifyRazorpaySignature(data, signature, secret string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
