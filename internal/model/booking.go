package model

import (
	"time"

	"gorm.io/gorm"
)

// Booking lifecycle states.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking represents a reservation owned by a tenant.
type Booking struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	TenantID      uint           `json:"tenant_id" gorm:"index;not null"`
	CustomerName  string         `json:"customer_name" gorm:"type:varchar(100);not null"`
	CustomerEmail string         `json:"customer_email" gorm:"type:varchar(100);index"`
	ServiceName   string         `json:"service_name" gorm:"type:varchar(100);not null"`
	StartsAt      time.Time      `json:"starts_at" gorm:"index;not null"`
	EndsAt        time.Time      `json:"ends_at" gorm:"not null"`
	Status        string         `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Notes         string         `json:"notes" gorm:"type:text"`
	CreatedBy     uint           `json:"created_by" gorm:"index"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// TenantScoped marks Booking as a tenant-owned entity for the tenancy plugin.
func (Booking) TenantScoped() {}
