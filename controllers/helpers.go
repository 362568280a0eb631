package controllers

import (
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gensethub/database"
)

// callerIdentity extracts the authenticated user id and role set by the
// auth middleware
func callerIdentity(c *gin.Context) (uint, string, bool) {
	userIDValue, exists := c.Get("userID")
	if !exists {
		return 0, "", false
	}
	userID, ok := userIDValue.(uint)
	if !ok {
		return 0, "", false
	}

	roleValue, exists := c.Get("role")
	if !exists {
		return 0, "", false
	}
	role, ok := roleValue.(string)
	if !ok {
		return 0, "", false
	}

	return userID, role, true
}

// writeAudit records an audit entry; failures are logged, never fatal
func writeAudit(tx *gorm.DB, userID uint, action, entityType string, entityID uint, detail string) {
	entry := database.Audit{
		UserID:     &userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	}
	if err := tx.Create(&entry).Error; err != nil {
		log.Printf("Failed to write audit entry: %v", err)
	}
}
