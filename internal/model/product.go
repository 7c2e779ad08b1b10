package model

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a sellable item owned by a tenant.
type Product struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_product_tenant_sku"`
	SKU         string         `json:"sku" gorm:"type:varchar(50);not null;uniqueIndex:idx_product_tenant_sku"` // Unique per tenant
	Name        string         `json:"name" gorm:"type:varchar(100);index;not null"`
	Description string         `json:"description" gorm:"type:text"`
	PriceCents  int64          `json:"price_cents" gorm:"not null;default:0"`
	Currency    string         `json:"currency" gorm:"type:varchar(3);not null;default:'USD'"`
	Stock       int            `json:"stock" gorm:"not null;default:0"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedBy   uint           `json:"created_by" gorm:"index"`
	UpdatedBy   uint           `json:"updated_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TenantScoped marks Product as a tenant-owned entity for the tenancy plugin.
func (Product) TenantScoped() {}
