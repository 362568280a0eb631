package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gensethub/config"
	"gensethub/database"
)

// taxRate is the fixed tax applied to every order subtotal
const taxRate = 0.18

// OrderItemRequest is one line of a proposed order
type OrderItemRequest struct {
	GensetID uint    `json:"genset_id" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Discount float64 `json:"discount" binding:"gte=0"`
}

// OrderRequest contains the data for order creation
type OrderRequest struct {
	CustomerID      uint               `json:"customer_id"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod   string             `json:"payment_method" binding:"required,oneof=Cash 'Bank Transfer' 'Credit Card' Cheque Financing"`
	DeliveryAddress database.Address   `json:"delivery_address"`
	DeliveryDate    *time.Time         `json:"delivery_date"`
	ShippingCost    float64            `json:"shipping_cost" binding:"gte=0"`
	Notes           string             `json:"notes"`
}

// CreateOrder creates a new sales order. Prices are snapshotted from the
// catalog and stock is only validated here; the reservation happens on the
// transition into Confirmed.
func CreateOrder(c *gin.Context) {
	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var request OrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Order must contain at least one item and a payment method"})
		return
	}

	customerID := request.CustomerID
	if customerID == 0 {
		customerID = callerID
	}
	// Customers can only order for themselves
	if !database.IsStaffRole(role) && customerID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
		return
	}

	var order database.SalesOrder

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var subtotal float64
		items := make([]database.OrderItem, 0, len(request.Items))

		for _, line := range request.Items {
			var genset database.Genset
			if err := tx.First(&genset, line.GensetID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"success": false,
						"message": fmt.Sprintf("Genset %d not found", line.GensetID)})
					return err
				}
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
				return err
			}

			if genset.Stock < line.Quantity {
				c.JSON(http.StatusBadRequest, gin.H{"success": false,
					"message": fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d",
						genset.ModelName, genset.Stock, line.Quantity)})
				return database.ErrInsufficientStock
			}

			total := genset.Price*float64(line.Quantity) - line.Discount
			items = append(items, database.OrderItem{
				GensetID:  genset.ID,
				Quantity:  line.Quantity,
				UnitPrice: genset.Price,
				Discount:  line.Discount,
				Total:     total,
			})
			subtotal += total
		}

		tax := subtotal * taxRate
		totalAmount := subtotal + tax + request.ShippingCost

		orderNumber, err := database.NextOrderNumber(tx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
			return err
		}

		order = database.SalesOrder{
			CustomerID:      customerID,
			OrderNumber:     orderNumber,
			Items:           items,
			Subtotal:        subtotal,
			Tax:             tax,
			ShippingCost:    request.ShippingCost,
			TotalAmount:     totalAmount,
			Status:          database.OrderStatusQuotation,
			DeliveryAddress: request.DeliveryAddress,
			PaymentStatus:   database.PaymentStatusPending,
			PaymentMethod:   request.PaymentMethod,
			DeliveryDate:    request.DeliveryDate,
			Notes:           request.Notes,
		}

		if err := tx.Create(&order).Error; err != nil {
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error creating order"})
			return err
		}
		return nil
	})
	if err != nil {
		return
	}

	if err := database.DB.Preload("Customer").Preload("Items.Genset").First(&order, order.ID).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error retrieving order"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Order created successfully", "data": order})
}

// GetOrders lists orders with optional customer/status filters, newest first.
// Customers only ever see their own orders.
func GetOrders(c *gin.Context) {
	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	query := database.DB.Model(&database.SalesOrder{}).
		Preload("Customer").
		Preload("Items.Genset")

	if database.IsStaffRole(role) {
		if customerID := c.Query("customerId"); customerID != "" {
			query = query.Where("customer_id = ?", customerID)
		}
	} else {
		query = query.Where("customer_id = ?", callerID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []database.SalesOrder
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "data": orders})
}

// GetCustomerOrders lists a customer's orders (staff or the customer themself)
func GetCustomerOrders(c *gin.Context) {
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

	var orders []database.SalesOrder
	if err := database.DB.Preload("Items.Genset").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch customer orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(orders), "data": orders})
}

// GetOrderByID returns a single order (staff or owner)
func GetOrderByID(c *gin.Context) {
	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var order database.SalesOrder
	if err := database.DB.Preload("Customer").Preload("Items.Genset").
		First(&order, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch order"})
		return
	}

	if !database.IsStaffRole(role) && order.CustomerID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// UpdateOrderStatusRequest contains the target status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Quotation Confirmed 'In Production' 'Ready for Delivery' Delivered Cancelled"`
}

// UpdateOrderStatus updates an order status (staff only). Entering Confirmed
// reserves stock with a conditional decrement; if any line cannot be
// reserved the whole transition rolls back and the order keeps its previous
// status. Moving from Confirmed to Cancelled restores the reservation.
func UpdateOrderStatus(c *gin.Context) {
	var request UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid status"})
		return
	}

	var order database.SalesOrder

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
				return err
			}
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
			return err
		}

		previousStatus := order.Status

		if err := applyStockSideEffects(tx, &order, previousStatus, request.Status, c); err != nil {
			return err
		}

		order.Status = request.Status
		if err := tx.Save(&order).Error; err != nil {
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error updating order status"})
			return err
		}

		if callerID, _, ok := callerIdentity(c); ok {
			writeAudit(tx, callerID, "status_change", "sales_order", order.ID,
				previousStatus+" -> "+request.Status)
		}
		return nil
	})
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order status updated", "data": order})
}

// applyStockSideEffects performs the inventory mutations tied to a status
// transition. Writes the HTTP error response itself on failure.
func applyStockSideEffects(tx *gorm.DB, order *database.SalesOrder, from, to string, c *gin.Context) error {
	// Reserve stock when entering Confirmed
	if to == database.OrderStatusConfirmed && from != database.OrderStatusConfirmed {
		for _, item := range order.Items {
			if err := database.ReserveStock(tx, item.GensetID, item.Quantity); err != nil {
				if errors.Is(err, database.ErrInsufficientStock) {
					c.JSON(http.StatusConflict, gin.H{"success": false,
						"message": fmt.Sprintf("Insufficient stock for genset %d", item.GensetID)})
					return err
				}
				if errors.Is(err, gorm.ErrRecordNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"success": false,
						"message": fmt.Sprintf("Genset %d not found", item.GensetID)})
					return err
				}
				log.Printf("Database error: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
				return err
			}
		}
	}

	// Restore stock when a confirmed order is cancelled
	if to == database.OrderStatusCancelled && from == database.OrderStatusConfirmed {
		for _, item := range order.Items {
			if err := database.ReleaseStock(tx, item.GensetID, item.Quantity); err != nil {
				log.Printf("Database error: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
				return err
			}
		}
	}

	return nil
}

// UpdatePaymentStatusRequest contains the target payment status
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required,oneof=Pending Partial Completed Refunded"`
}

// UpdatePaymentStatus updates an order's payment status (staff only). This is
// the one mutation allowed after delivery.
func UpdatePaymentStatus(c *gin.Context) {
	var request UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payment status"})
		return
	}

	var order database.SalesOrder
	if err := database.DB.First(&order, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	if err := database.DB.Model(&order).Update("payment_status", request.PaymentStatus).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update payment status"})
		return
	}
	order.PaymentStatus = request.PaymentStatus

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Payment status updated", "data": order})
}

// CancelOrder sets an order to Cancelled (owner or staff). Stock is restored
// only when the previous status was Confirmed, so a second cancel is a no-op
// on inventory.
func CancelOrder(c *gin.Context) {
	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var order database.SalesOrder

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
				return err
			}
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
			return err
		}

		if !database.IsStaffRole(role) && order.CustomerID != callerID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
			return errors.New("forbidden")
		}

		previousStatus := order.Status
		if err := applyStockSideEffects(tx, &order, previousStatus, database.OrderStatusCancelled, c); err != nil {
			return err
		}

		order.Status = database.OrderStatusCancelled
		if err := tx.Save(&order).Error; err != nil {
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error cancelling order"})
			return err
		}

		writeAudit(tx, callerID, "cancel", "sales_order", order.ID,
			previousStatus+" -> "+database.OrderStatusCancelled)
		return nil
	})
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order cancelled successfully", "data": order})
}

// DeleteOrder removes an order permanently (Admin only). Deleting a Confirmed
// order forfeits its stock reservation, so by default it is rejected until
// the order is cancelled first.
func DeleteOrder(c *gin.Context) {
	var order database.SalesOrder
	if err := database.DB.First(&order, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	if order.Status == database.OrderStatusConfirmed && !config.AppConfig.AllowDeleteConfirmedOrders {
		c.JSON(http.StatusConflict, gin.H{"success": false,
			"message": "Order is confirmed and holds reserved stock; cancel it before deleting"})
		return
	}

	if err := database.DB.Select("Items").Unscoped().Delete(&order).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete order"})
		return
	}

	if callerID, _, ok := callerIdentity(c); ok {
		writeAudit(database.DB, callerID, "delete", "sales_order", order.ID, order.OrderNumber)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order deleted successfully", "data": order})
}
