package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Global platform roles. SuperAdmin bypasses tenant-membership checks.
const (
	RoleSuperAdmin = "superadmin"
	RoleUser       = "user"
)

// User represents the user model stored in the database.
// Platform-global table: users exist independently of any tenant.
type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Email       string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password    string         `json:"-" gorm:"type:varchar(255)"`
	Role        string         `json:"role" gorm:"type:varchar(50);not null;default:'user'"`
	Permissions pq.StringArray `json:"permissions,omitempty" gorm:"type:text[]"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
