package model

import (
	"time"
)

// Currency is a platform-global catalog table shared by every tenant.
// It deliberately does not implement TenantScoped: operations against it
// must pass through the tenancy plugin unmodified.
type Currency struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Code      string    `json:"code" gorm:"type:varchar(3);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(50);not null"`
	Symbol    string    `json:"symbol" gorm:"type:varchar(5)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
