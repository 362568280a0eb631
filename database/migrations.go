package database

import (
	"log"

	"gensethub/utils"
)

// RunMigrations runs all database migrations
func RunMigrations() error {
	log.Println("Running database migrations...")

	// AutoMigrate will create tables if they don't exist
	if err := DB.AutoMigrate(
		&User{},
		&Genset{},
		&SalesOrder{},
		&OrderItem{},
		&ServiceRequest{},
		&ServicePart{},
		&Sequence{},
		&Audit{},
	); err != nil {
		log.Printf("Migration failed: %v", err)
		return err
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedDefaultAdmin creates a default admin if none exists
func SeedDefaultAdmin() {
	var count int64
	if err := DB.Model(&User{}).Where("role = ?", RoleAdmin).Count(&count).Error; err != nil {
		log.Printf("Failed to check existing admin: %v", err)
		return
	}
	if count > 0 {
		log.Println("Admin user already exists")
		return
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		log.Printf("Failed to hash default admin password: %v", err)
		return
	}

	admin := User{
		Name:         "Administrator",
		Email:        "admin@gensethub.local",
		PasswordHash: hash,
		Role:         RoleAdmin,
		Phone:        "9999999999",
		IsActive:     true,
	}

	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("Failed to create admin: %v", err)
	} else {
		log.Println("Default admin user created")
	}
}
