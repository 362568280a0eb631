package routes

import (
	"github.com/gin-gonic/gin"

	"gensethub/controllers"
	"gensethub/middleware"
)

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine) {
	r.GET("/health", controllers.HealthCheck)

	// Public routes (no authentication required)
	public := r.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
		}

		// Catalog browsing is open to everyone
		public.GET("/gensets", controllers.GetGensets)
		public.GET("/gensets/:id", controllers.GetGensetByID)

		// Reporting
		public.GET("/dashboard", controllers.GetDashboard)
		public.GET("/low-stock", controllers.GetLowStock)
		public.GET("/reports/sales", controllers.GetSalesReport)
		public.GET("/reports/service", controllers.GetServiceMetrics)
	}

	// Protected routes (authentication required)
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/me", controllers.GetProfile)
		protected.PUT("/auth/profile", controllers.UpdateProfile)
		protected.POST("/auth/change-password", controllers.ChangePassword)

		// Catalog management
		gensets := protected.Group("/gensets")
		gensets.Use(middleware.AdminAuthMiddleware())
		{
			gensets.POST("", controllers.CreateGenset)
			gensets.PUT("/:id", controllers.UpdateGenset)
			gensets.PATCH("/:id/deactivate", controllers.DeactivateGenset)
			gensets.DELETE("/:id", controllers.DeleteGenset)
		}

		// Sales orders
		orders := protected.Group("/orders")
		{
			orders.POST("", controllers.CreateOrder)
			orders.GET("", controllers.GetOrders)
			orders.GET("/customer/:customerId", controllers.GetCustomerOrders)
			orders.GET("/:id", controllers.GetOrderByID)
			orders.PATCH("/:id/status", middleware.StaffAuthMiddleware(), controllers.UpdateOrderStatus)
			orders.PATCH("/:id/payment", middleware.StaffAuthMiddleware(), controllers.UpdatePaymentStatus)
			orders.PATCH("/:id/cancel", controllers.CancelOrder)
			orders.DELETE("/:id", middleware.AdminAuthMiddleware(), controllers.DeleteOrder)
		}

		// Service tickets
		services := protected.Group("/service-requests")
		{
			services.POST("", controllers.CreateServiceRequest)
			services.GET("", controllers.GetServiceRequests)
			services.GET("/customer/:customerId", controllers.GetCustomerServiceRequests)
			services.GET("/:id", controllers.GetServiceRequestByID)
			services.PATCH("/:id/assign", middleware.StaffAuthMiddleware(), controllers.AssignTechnician)
			services.PATCH("/:id/status", middleware.StaffAuthMiddleware(), controllers.UpdateServiceStatus)
			services.PATCH("/:id/complete", middleware.StaffAuthMiddleware(), controllers.CompleteService)
			services.PATCH("/:id/feedback", controllers.SubmitFeedback)
		}

		// Payments
		payments := protected.Group("/payments")
		{
			payments.POST("/generate-order", controllers.GeneratePaymentOrder)
			payments.POST("/verify", controllers.VerifyPayment)
		}

		// User management
		users := protected.Group("/users")
		{
			users.GET("/:id", controllers.GetUserByID)
			users.PUT("/:id", controllers.UpdateUser)

			users.POST("", middleware.AdminAuthMiddleware(), controllers.CreateUser)
			users.GET("", middleware.AdminAuthMiddleware(), controllers.GetUsers)
			users.DELETE("/:id", middleware.AdminAuthMiddleware(), controllers.DeleteUser)
			users.PATCH("/:id/activate", middleware.AdminAuthMiddleware(), controllers.SetUserActive(true))
			users.PATCH("/:id/deactivate", middleware.AdminAuthMiddleware(), controllers.SetUserActive(false))
			users.PATCH("/:id/role", middleware.AdminAuthMiddleware(), controllers.ChangeUserRole)
		}
	}
}
