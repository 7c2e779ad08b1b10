package tenancy

import (
	"context"
	"errors"
)

// ErrNoTenantBinding is returned when a tenant-owned table is accessed
// through a context that carries no tenant binding at all. The operation
// is rejected instead of silently running unscoped.
var ErrNoTenantBinding = errors.New("tenancy: no tenant binding in context")

// ErrUnscopedTenantSession is returned when no-scoping mode is entered on
// top of an active tenant session. This is a wiring bug in the request
// pipeline, never a recoverable condition.
var ErrUnscopedTenantSession = errors.New("tenancy: unscoped access requested under an active tenant session")

// Binding is the per-request tenant scope captured at request-context
// construction. It is read-only after creation.
type Binding struct {
	TenantID uint
	Unscoped bool
}

type contextKey struct{}

var bindingKey contextKey

// WithTenant binds a concrete tenant to the context. Every operation on a
// tenant-owned table executed under this context is rewritten to that tenant.
func WithTenant(ctx context.Context, tenantID uint) context.Context {
	return context.WithValue(ctx, bindingKey, Binding{TenantID: tenantID})
}

// WithoutTenant enters explicit no-scoping mode for platform-level
// administrative code paths. If the context already carries a tenant
// binding the result is poisoned: any operation on a tenant-owned table
// fails with ErrUnscopedTenantSession rather than running unscoped.
func WithoutTenant(ctx context.Context) context.Context {
	if b, ok := FromContext(ctx); ok && !b.Unscoped && b.TenantID != 0 {
		return context.WithValue(ctx, bindingKey, Binding{TenantID: b.TenantID, Unscoped: true})
	}
	return context.WithValue(ctx, bindingKey, Binding{Unscoped: true})
}

// FromContext returns the tenant binding captured in the context.
func FromContext(ctx context.Context) (Binding, bool) {
	b, ok := ctx.Value(bindingKey).(Binding)
	return b, ok
}
