package model

import (
	"time"

	"gorm.io/gorm"
)

// Employee represents an HR record owned by a tenant.
type Employee struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	TenantID   uint           `json:"tenant_id" gorm:"index;not null"`
	UserID     *uint          `json:"user_id,omitempty" gorm:"index"` // Linked platform user, if any
	FirstName  string         `json:"first_name" gorm:"type:varchar(50);not null"`
	LastName   string         `json:"last_name" gorm:"type:varchar(50);not null"`
	Email      string         `json:"email" gorm:"type:varchar(100);index"`
	Department string         `json:"department" gorm:"type:varchar(50)"`
	Position   string         `json:"position" gorm:"type:varchar(50)"`
	HiredAt    *time.Time     `json:"hired_at,omitempty"`
	IsActive   bool           `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// TenantScoped marks Employee as a tenant-owned entity for the tenancy plugin.
func (Employee) TenantScoped() {}
