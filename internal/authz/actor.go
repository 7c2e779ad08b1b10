package authz

import (
	"platform-service/internal/model"
)

// Membership is one tenant relation of an actor, carrying the role held
// within that tenant.
type Membership struct {
	TenantID uint
	Role     string
	Active   bool
}

// Actor is the authenticated caller as resolved by the session layer.
// It is consumed read-only by rule predicates.
type Actor struct {
	UserID      uint
	Email       string
	Role        string // Global platform role
	Memberships []Membership
	Permissions []string
}

// IsSuperAdmin reports whether the actor holds the global SuperAdmin role,
// which bypasses tenant-membership checks entirely.
func (a *Actor) IsSuperAdmin() bool {
	return a != nil && a.Role == model.RoleSuperAdmin
}

// MembershipFor returns the actor's membership relation to the tenant.
func (a *Actor) MembershipFor(tenantID uint) (Membership, bool) {
	if a == nil {
		return Membership{}, false
	}
	for _, m := range a.Memberships {
		if m.TenantID == tenantID {
			return m, true
		}
	}
	return Membership{}, false
}

// HasPermission reports whether the permission string is present in the
// actor's resolved permission set.
func (a *Actor) HasPermission(permission string) bool {
	if a == nil {
		return false
	}
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
