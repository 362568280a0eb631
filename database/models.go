package database

import (
	"time"

	"gorm.io/gorm"
)

// Address is embedded into orders and service requests
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// User represents a user account (customers and staff share one table)
type User struct {
	gorm.Model
	Name         string     `json:"name"`
	Email        string     `json:"email" gorm:"uniqueIndex"`
	PasswordHash string     `json:"-"`
	Phone        string     `json:"phone"`
	Company      string     `json:"company"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	LastLogin    *time.Time `json:"last_login"`
	Address      Address    `json:"address" gorm:"embedded;embeddedPrefix:address_"`
}

// Genset represents a generator set in the catalog
type Genset struct {
	gorm.Model
	ModelName      string  `json:"model" gorm:"column:model_name"`
	Brand          string  `json:"brand"`
	Capacity       float64 `json:"capacity"` // kVA
	FuelType       string  `json:"fuel_type"`
	Phase          string  `json:"phase"`
	Price          float64 `json:"price"`
	Condition      string  `json:"condition"`
	Voltage        string  `json:"voltage"`
	Frequency      string  `json:"frequency"`
	EngineModel    string  `json:"engine_model"`
	RunningHours   int     `json:"running_hours"`
	Weight         float64 `json:"weight"`
	Stock          int     `json:"stock"`
	ImageURL       string  `json:"image_url"`
	WarrantyMonths int     `json:"warranty_months"`
	IsActive       bool    `json:"is_active" gorm:"default:true"`
}

// SalesOrder represents a customer order for one or more gensets
type SalesOrder struct {
	gorm.Model
	CustomerID      uint        `json:"customer_id"`
	OrderNumber     string      `json:"order_number" gorm:"uniqueIndex"`
	Items           []OrderItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	ShippingCost    float64     `json:"shipping_cost"`
	TotalAmount     float64     `json:"total_amount"`
	Status          string      `json:"status"`
	DeliveryAddress Address     `json:"delivery_address" gorm:"embedded;embeddedPrefix:delivery_"`
	PaymentStatus   string      `json:"payment_status"`
	PaymentMethod   string      `json:"payment_method"`
	DeliveryDate    *time.Time  `json:"delivery_date"`
	Notes           string      `json:"notes"`
	Customer        User        `json:"customer" gorm:"foreignKey:CustomerID"`
}

// OrderItem is one line within a sales order. Unit price is snapshotted from
// the genset at order-creation time and never re-read.
type OrderItem struct {
	gorm.Model
	SalesOrderID uint    `json:"sales_order_id"`
	GensetID     uint    `json:"genset_id"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Discount     float64 `json:"discount"`
	Total        float64 `json:"total"`
	Genset       Genset  `json:"genset" gorm:"foreignKey:GensetID"`
}

// ServiceRequest represents a service ticket
type ServiceRequest struct {
	gorm.Model
	CustomerID      uint          `json:"customer_id"`
	TicketNumber    string        `json:"ticket_number" gorm:"uniqueIndex"`
	GensetID        *uint         `json:"genset_id"`
	ServiceType     string        `json:"service_type"`
	Priority        string        `json:"priority"`
	Description     string        `json:"description"`
	ContactNumber   string        `json:"contact_number"`
	TechnicianID    *uint         `json:"technician_id"`
	Status          string        `json:"status"`
	ScheduledDate   *time.Time    `json:"scheduled_date"`
	CompletedDate   *time.Time    `json:"completed_date"`
	ServiceLocation Address       `json:"service_location" gorm:"embedded;embeddedPrefix:location_"`
	EstimatedCost   float64       `json:"estimated_cost"`
	ActualCost      float64       `json:"actual_cost"`
	PartsUsed       []ServicePart `json:"parts_used" gorm:"constraint:OnDelete:CASCADE"`
	TechnicianNotes string        `json:"technician_notes"`
	Rating          *int          `json:"rating"`
	Feedback        string        `json:"feedback"`
	Customer        User          `json:"customer" gorm:"foreignKey:CustomerID"`
	Genset          *Genset       `json:"genset" gorm:"foreignKey:GensetID"`
	Technician      *User         `json:"technician" gorm:"foreignKey:TechnicianID"`
}

// ServicePart is one part consumed while completing a service request
type ServicePart struct {
	gorm.Model
	ServiceRequestID uint    `json:"service_request_id"`
	PartName         string  `json:"part_name"`
	Quantity         int     `json:"quantity"`
	Cost             float64 `json:"cost"`
}

// Sequence is a named counter used for order and ticket numbers
type Sequence struct {
	Name  string `gorm:"primaryKey"`
	Value int64
}

// Audit represents a system audit log entry
type Audit struct {
	gorm.Model
	UserID     *uint  `json:"user_id"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   uint   `json:"entity_id"`
	Detail     string `json:"detail"`
	User       *User  `gorm:"foreignKey:UserID" json:"user"`
}

// Constants for status values
const (
	OrderStatusQuotation    = "Quotation"
	OrderStatusConfirmed    = "Confirmed"
	OrderStatusInProduction = "In Production"
	OrderStatusReady        = "Ready for Delivery"
	OrderStatusDelivered    = "Delivered"
	OrderStatusCancelled    = "Cancelled"

	PaymentStatusPending   = "Pending"
	PaymentStatusPartial   = "Partial"
	PaymentStatusCompleted = "Completed"
	PaymentStatusRefunded  = "Refunded"

	ServiceStatusOpen       = "Open"
	ServiceStatusAssigned   = "Assigned"
	ServiceStatusInProgress = "In Progress"
	ServiceStatusOnHold     = "On Hold"
	ServiceStatusCompleted  = "Completed"
	ServiceStatusCancelled  = "Cancelled"

	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"

	// User roles
	RoleAdmin      = "admin"
	RoleEmployee   = "employee"
	RoleTechnician = "technician"
	RoleCustomer   = "customer"

	// Sequence names
	SequenceOrders  = "sales_orders"
	SequenceTickets = "service_requests"
)

// IsStaffRole reports whether the role may act on any order or ticket
func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RoleEmployee || role == RoleTechnician
}
