package controllers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gensethub/config"
	"gensethub/database"
)

// HealthCheck reports service and database health
func HealthCheck(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	if database.ReportingDB == nil || database.ReportingDB.Ping() != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC(),
	})
}

// DashboardStats is the aggregate summary for the dashboard
type DashboardStats struct {
	ActiveGensets  int64 `db:"active_gensets" json:"active_gensets"`
	LowStockCount  int64 `db:"low_stock_count" json:"low_stock_count"`
	PendingOrders  int64 `db:"pending_orders" json:"pending_orders"`
	OpenTickets    int64 `db:"open_tickets" json:"open_tickets"`
	TotalCustomers int64 `db:"total_customers" json:"total_customers"`
}

// GetDashboard returns headline counts for the operations dashboard
func GetDashboard(c *gin.Context) {
	db := database.ReportingDB
	threshold := config.AppConfig.LowStockThreshold

	var stats DashboardStats

	queries := []struct {
		dest  *int64
		query string
		args  []interface{}
	}{
		{&stats.ActiveGensets,
			"SELECT COUNT(*) FROM gensets WHERE is_active = ? AND deleted_at IS NULL",
			[]interface{}{true}},
		{&stats.LowStockCount,
			"SELECT COUNT(*) FROM gensets WHERE is_active = ? AND stock < ? AND deleted_at IS NULL",
			[]interface{}{true, threshold}},
		{&stats.PendingOrders,
			"SELECT COUNT(*) FROM sales_orders WHERE status IN (?, ?, ?) AND deleted_at IS NULL",
			[]interface{}{database.OrderStatusQuotation, database.OrderStatusConfirmed, database.OrderStatusInProduction}},
		{&stats.OpenTickets,
			"SELECT COUNT(*) FROM service_requests WHERE status IN (?, ?, ?) AND deleted_at IS NULL",
			[]interface{}{database.ServiceStatusOpen, database.ServiceStatusAssigned, database.ServiceStatusInProgress}},
		{&stats.TotalCustomers,
			"SELECT COUNT(*) FROM users WHERE role = ? AND deleted_at IS NULL",
			[]interface{}{database.RoleCustomer}},
	}

	for _, q := range queries {
		if err := db.Get(q.dest, db.Rebind(q.query), q.args...); err != nil {
			log.Printf("Dashboard query error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to build dashboard"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// LowStockItem is one catalog entry at or below the reorder threshold
type LowStockItem struct {
	ID        uint    `db:"id" json:"id"`
	ModelName string  `db:"model_name" json:"model"`
	Brand     string  `db:"brand" json:"brand"`
	Capacity  float64 `db:"capacity" json:"capacity"`
	Stock     int     `db:"stock" json:"stock"`
}

// GetLowStock lists active gensets below the stock threshold. The default
// threshold comes from configuration and can be overridden per request.
func GetLowStock(c *gin.Context) {
	threshold := config.AppConfig.LowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid threshold"})
			return
		}
		threshold = v
	}

	db := database.ReportingDB
	var items []LowStockItem
	query := db.Rebind(`SELECT id, model_name, brand, capacity, stock
		FROM gensets
		WHERE is_active = ? AND stock < ? AND deleted_at IS NULL
		ORDER BY stock ASC, model_name ASC`)
	if err := db.Select(&items, query, true, threshold); err != nil {
		log.Printf("Low stock query error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch low stock report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(items), "threshold": threshold, "data": items})
}

// SalesSummary aggregates orders over a period, cancelled excluded
type SalesSummary struct {
	OrderCount   int64    `db:"order_count" json:"order_count"`
	TotalRevenue *float64 `db:"total_revenue" json:"total_revenue"`
	AverageOrder *float64 `db:"average_order" json:"average_order"`
}

// SalesByStatus is the per-status breakdown within the period
type SalesByStatus struct {
	Status string  `db:"status" json:"status"`
	Count  int64   `db:"count" json:"count"`
	Total  float64 `db:"total" json:"total"`
}

// GetSalesReport aggregates sales orders in a date range. Both bounds are
// required; cancelled orders never count toward revenue.
func GetSalesReport(c *gin.Context) {
	startDate := c.Query("startDate")
	endDate := c.Query("endDate")
	if startDate == "" || endDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "startDate and endDate are required"})
		return
	}
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid startDate, expected YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid endDate, expected YYYY-MM-DD"})
		return
	}
	// Upper bound is exclusive at the following midnight
	end = end.AddDate(0, 0, 1)

	db := database.ReportingDB

	var summary SalesSummary
	summaryQuery := db.Rebind(`SELECT COUNT(*) AS order_count,
		SUM(total_amount) AS total_revenue,
		AVG(total_amount) AS average_order
		FROM sales_orders
		WHERE status != ? AND created_at >= ? AND created_at < ? AND deleted_at IS NULL`)
	if err := db.Get(&summary, summaryQuery, database.OrderStatusCancelled, start, end); err != nil {
		log.Printf("Sales report query error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to build sales report"})
		return
	}

	var byStatus []SalesByStatus
	statusQuery := db.Rebind(`SELECT status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total
		FROM sales_orders
		WHERE created_at >= ? AND created_at < ? AND deleted_at IS NULL
		GROUP BY status
		ORDER BY status`)
	if err := db.Select(&byStatus, statusQuery, start, end); err != nil {
		log.Printf("Sales report query error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to build sales report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"start_date": startDate,
			"end_date":   endDate,
			"summary":    summary,
			"by_status":  byStatus,
		},
	})
}

// ServiceStatusMetric is the per-status ticket breakdown
type ServiceStatusMetric struct {
	Status      string   `db:"status" json:"status"`
	Count       int64    `db:"count" json:"count"`
	AverageCost *float64 `db:"average_cost" json:"average_cost"`
}

// GetServiceMetrics reports ticket counts per status and overall feedback.
// An optional startDate/endDate pair narrows the window.
func GetServiceMetrics(c *gin.Context) {
	db := database.ReportingDB

	window := ""
	args := []interface{}{}
	if startDate, endDate := c.Query("startDate"), c.Query("endDate"); startDate != "" && endDate != "" {
		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid startDate, expected YYYY-MM-DD"})
			return
		}
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid endDate, expected YYYY-MM-DD"})
			return
		}
		window = " AND created_at >= ? AND created_at < ?"
		args = append(args, start, end.AddDate(0, 0, 1))
	}

	var byStatus []ServiceStatusMetric
	statusQuery := db.Rebind(`SELECT status, COUNT(*) AS count, AVG(actual_cost) AS average_cost
		FROM service_requests
		WHERE deleted_at IS NULL` + window + `
		GROUP BY status
		ORDER BY status`)
	if err := db.Select(&byStatus, statusQuery, args...); err != nil {
		log.Printf("Service metrics query error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to build service metrics"})
		return
	}

	var avgRating *float64
	ratingQuery := db.Rebind(`SELECT AVG(rating) FROM service_requests
		WHERE rating IS NOT NULL AND deleted_at IS NULL` + window)
	if err := db.Get(&avgRating, ratingQuery, args...); err != nil {
		log.Printf("Service metrics query error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to build service metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"by_status":      byStatus,
			"average_rating": avgRating,
		},
	})
}
