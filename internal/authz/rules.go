package authz

import (
	"context"
	"fmt"
	"strconv"
)

// Argument keys consulted by IsSelf, in preference order.
var ownerKeys = []string{"user_id", "owner_id"}

// IsAuthenticated passes iff the caller has a resolved identity.
func IsAuthenticated() Rule {
	return NewRule("isAuthenticated", func(_ context.Context, req *Request) error {
		if req.Actor == nil {
			return ErrUnauthenticated
		}
		return nil
	})
}

// IsSelf passes iff the resource's owning-user identifier equals the
// caller's. The owner is read from the operation arguments first, then
// from the parent object.
func IsSelf() Rule {
	return NewRule("isSelf", func(_ context.Context, req *Request) error {
		if req.Actor == nil {
			return ErrUnauthenticated
		}
		ownerID, ok := ownerFrom(req.Args)
		if !ok {
			ownerID, ok = ownerFrom(req.Parent)
		}
		if !ok {
			return &DeniedError{Reason: "resource owner could not be determined"}
		}
		if ownerID != req.Actor.UserID {
			return &DeniedError{Reason: "resource belongs to another user"}
		}
		return nil
	})
}

// IsRole passes iff the caller's global role equals the given one.
func IsRole(role string) Rule {
	return NewRule(fmt.Sprintf("isRole(%s)", role), func(_ context.Context, req *Request) error {
		if req.Actor == nil {
			return ErrUnauthenticated
		}
		if req.Actor.Role != role {
			return &DeniedError{Reason: fmt.Sprintf("requires role %q", role)}
		}
		return nil
	})
}

// IsTenantMember passes iff the caller has an active membership relation
// to the tenant in scope. SuperAdmin bypasses the membership check.
func IsTenantMember() Rule {
	return NewRule("isTenantMember", func(_ context.Context, req *Request) error {
		if req.Actor == nil {
			return ErrUnauthenticated
		}
		if req.Actor.IsSuperAdmin() {
			return nil
		}
		if req.TenantID == 0 {
			return &DeniedError{Reason: "no tenant in scope"}
		}
		membership, ok := req.Actor.MembershipFor(req.TenantID)
		if !ok || !membership.Active {
			return &DeniedError{Reason: "not a member of this tenant"}
		}
		return nil
	})
}

// HasPermission passes iff the permission string is present in the
// caller's resolved permission set.
func HasPermission(permission string) Rule {
	return NewRule(fmt.Sprintf("hasPermission(%s)", permission), func(_ context.Context, req *Request) error {
		if req.Actor == nil {
			return ErrUnauthenticated
		}
		if !req.Actor.HasPermission(permission) {
			return &DeniedError{Reason: fmt.Sprintf("missing permission %q", permission)}
		}
		return nil
	})
}

func ownerFrom(values map[string]interface{}) (uint, bool) {
	for _, key := range ownerKeys {
		if raw, ok := values[key]; ok {
			if id, ok := toUint(raw); ok {
				return id, true
			}
		}
	}
	return 0, false
}

func toUint(v interface{}) (uint, bool) {
	switch value := v.(type) {
	case uint:
		return value, true
	case uint64:
		return uint(value), true
	case int:
		if value < 0 {
			return 0, false
		}
		return uint(value), true
	case int64:
		if value < 0 {
			return 0, false
		}
		return uint(value), true
	case float64:
		if value < 0 {
			return 0, false
		}
		return uint(value), true
	case string:
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return 0, false
		}
		return uint(parsed), true
	default:
		return 0, false
	}
}
