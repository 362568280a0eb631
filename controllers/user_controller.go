package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gensethub/database"
	"gensethub/utils"
)

// CreateUserRequest contains the data for admin user creation
type CreateUserRequest struct {
	Name     string           `json:"name" binding:"required"`
	Email    string           `json:"email" binding:"required,email"`
	Phone    string           `json:"phone" binding:"required"`
	Password string           `json:"password" binding:"required,min=6"`
	Role     string           `json:"role" binding:"omitempty,oneof=customer admin employee technician"`
	Company  string           `json:"company"`
	Address  database.Address `json:"address"`
}

// UpdateUserRequest contains the editable user fields
type UpdateUserRequest struct {
	Name     string           `json:"name"`
	Phone    string           `json:"phone"`
	Company  string           `json:"company"`
	Password string           `json:"password"`
	Role     string           `json:"role"`
	IsActive *bool            `json:"is_active"`
	Address  database.Address `json:"address"`
}

// CreateUser creates a user with any role (Admin only)
func CreateUser(c *gin.Context) {
	var request CreateUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide name, email, password, and phone"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(request.Email))

	var count int64
	database.DB.Model(&database.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Email already registered"})
		return
	}

	role := request.Role
	if role == "" {
		role = database.RoleCustomer
	}

	passwordHash, err := utils.HashPassword(request.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error creating user"})
		return
	}

	user := database.User{
		Name:         request.Name,
		Email:        email,
		Phone:        request.Phone,
		PasswordHash: passwordHash,
		Company:      request.Company,
		Address:      request.Address,
		Role:         role,
		IsActive:     true,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error creating user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User created successfully", "data": user})
}

// GetUsers lists users with optional role/status/search filters (Admin only)
func GetUsers(c *gin.Context) {
	query := database.DB.Model(&database.User{})

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	switch c.Query("status") {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var users []database.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "data": users})
}

// GetUserByID returns a user (admin or self)
func GetUserByID(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
		return
	}

	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}
	if role != database.RoleAdmin && callerID != uint(targetID) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
		return
	}

	var user database.User
	if err := database.DB.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// UpdateUser updates a user. Admin can update anyone; other users only
// themselves, and never their own role or active flag.
func UpdateUser(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
		return
	}

	callerID, role, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}
	if role != database.RoleAdmin && callerID != uint(targetID) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
		return
	}

	var request UpdateUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request data"})
		return
	}

	var user database.User
	if err := database.DB.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	if request.Name != "" {
		user.Name = request.Name
	}
	if request.Phone != "" {
		user.Phone = request.Phone
	}
	user.Company = request.Company
	user.Address = request.Address

	if request.Password != "" {
		passwordHash, err := utils.HashPassword(request.Password)
		if err != nil {
			log.Printf("Error hashing password: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error updating user"})
			return
		}
		user.PasswordHash = passwordHash
	}

	// Only admin may change role or active state
	if role == database.RoleAdmin {
		if request.Role != "" {
			if !validRole(request.Role) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid role"})
				return
			}
			user.Role = request.Role
		}
		if request.IsActive != nil {
			user.IsActive = *request.IsActive
		}
	}

	if err := database.DB.Save(&user).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error updating user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User updated successfully", "data": user})
}

// DeleteUser removes a user permanently (Admin only)
func DeleteUser(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
		return
	}

	var user database.User
	if err := database.DB.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	if err := database.DB.Delete(&user).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error deleting user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully"})
}

// SetUserActive toggles the active flag (Admin only)
func SetUserActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
			return
		}

		var user database.User
		if err := database.DB.First(&user, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
				return
			}
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
			return
		}

		if err := database.DB.Model(&user).Update("is_active", active).Error; err != nil {
			log.Printf("Database error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error updating user"})
			return
		}
		user.IsActive = active

		message := "User deactivated"
		if active {
			message = "User activated"
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "data": user})
	}
}

// ChangeUserRoleRequest contains the target role
type ChangeUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ChangeUserRole updates a user's role (Admin only)
func ChangeUserRole(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
		return
	}

	var request ChangeUserRoleRequest
	if err := c.ShouldBindJSON(&request); err != nil || !validRole(request.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid role"})
		return
	}

	var user database.User
	if err := database.DB.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	previousRole := user.Role
	if err := database.DB.Model(&user).Update("role", request.Role).Error; err != nil {
		log.Printf("Database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error updating role"})
		return
	}
	user.Role = request.Role

	if callerID, _, ok := callerIdentity(c); ok {
		writeAudit(database.DB, callerID, "role_change", "user", user.ID,
			previousRole+" -> "+request.Role)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User role updated", "data": user})
}

func validRole(role string) bool {
	switch role {
	case database.RoleCustomer, database.RoleAdmin, database.RoleEmployee, database.RoleTechnician:
		return true
	}
	return false
}
