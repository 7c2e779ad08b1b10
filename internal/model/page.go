package model

import (
	"time"

	"gorm.io/gorm"
)

// Page publication states.
const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
	PageStatusArchived  = "archived"
)

// Page represents a CMS page owned by a tenant.
type Page struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null;uniqueIndex:idx_page_tenant_slug"`
	Slug      string         `json:"slug" gorm:"type:varchar(100);not null;uniqueIndex:idx_page_tenant_slug"` // Unique per tenant
	Title     string         `json:"title" gorm:"type:varchar(200);not null"`
	Content   string         `json:"content" gorm:"type:text"`
	Status    string         `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	CreatedBy uint           `json:"created_by" gorm:"index"`
	UpdatedBy uint           `json:"updated_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TenantScoped marks Page as a tenant-owned entity for the tenancy plugin.
func (Page) TenantScoped() {}
