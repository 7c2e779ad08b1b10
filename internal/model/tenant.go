package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Tenant status constants. Tenants are never hard-deleted; they move
// between these states so owned records keep a valid reference.
const (
	TenantStatusActive    = "active"
	TenantStatusInactive  = "inactive"
	TenantStatusSuspended = "suspended"
)

// Feature flags a tenant can have enabled. This is the closed catalog;
// values outside it are rejected at the handler level.
const (
	FeatureCMS      = "cms"
	FeatureBooking  = "booking"
	FeatureCommerce = "commerce"
	FeatureHR       = "hr"
	FeatureLegal    = "legal"
)

// AllFeatures lists every known feature flag.
var AllFeatures = []string{FeatureCMS, FeatureBooking, FeatureCommerce, FeatureHR, FeatureLegal}

// Tenant represents an isolated customer account.
// This is a platform-global table: it is NOT itself tenant-scoped.
type Tenant struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Slug        string         `json:"slug" gorm:"type:varchar(63);uniqueIndex;not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	OwnerID     uint           `json:"owner_id" gorm:"index;not null"`
	Status      string         `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	Features    pq.StringArray `json:"features" gorm:"type:text[]"`
	Plan        string         `json:"plan" gorm:"type:varchar(50);not null;default:'free'"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// HasFeature reports whether the feature flag is enabled for the tenant.
func (t *Tenant) HasFeature(feature string) bool {
	for _, f := range t.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// IsKnownFeature reports whether the flag is part of the closed catalog.
func IsKnownFeature(feature string) bool {
	for _, f := range AllFeatures {
		if f == feature {
			return true
		}
	}
	return false
}
