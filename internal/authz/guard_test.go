package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-service/internal/model"
)

func TestTableResolutionPrecedence(t *testing.T) {
	fieldRule := Allow()
	opRule := Deny()
	defaultRule := IsAuthenticated()

	table := NewTable().
		Field("User", "email", fieldRule).
		Operation(Query, "pages", opRule).
		Default(Query, defaultRule)

	r, ok := table.Resolve(Operation{Type: "User", Field: "email"})
	require.True(t, ok)
	assert.Equal(t, fieldRule.Name(), r.Name())

	r, ok = table.Resolve(Operation{Category: Query, Name: "pages"})
	require.True(t, ok)
	assert.Equal(t, opRule.Name(), r.Name())

	r, ok = table.Resolve(Operation{Category: Query, Name: "unlisted"})
	require.True(t, ok)
	assert.Equal(t, defaultRule.Name(), r.Name())

	// Mutations have no default here, so resolution reports a miss.
	_, ok = table.Resolve(Operation{Category: Mutation, Name: "unlisted"})
	assert.False(t, ok)
}

func TestGuardDefaultDeny(t *testing.T) {
	guard := NewGuard(NewTable(), nil)

	err := guard.Authorize(context.Background(),
		Operation{Category: Mutation, Name: "anything"},
		&Request{Actor: actor(1, "user")})

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "mutation:anything", denied.Path)
}

func TestGuardUnauthenticatedPassthrough(t *testing.T) {
	table := NewTable().Default(Query, IsAuthenticated())
	guard := NewGuard(table, nil)

	err := guard.Authorize(context.Background(),
		Operation{Category: Query, Name: "pages"}, &Request{})

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGuardFillsDenialPath(t *testing.T) {
	table := NewTable().Operation(Mutation, "pages.delete", Deny())
	guard := NewGuard(table, nil)

	err := guard.Authorize(context.Background(),
		Operation{Category: Mutation, Name: "pages.delete"},
		&Request{Actor: actor(1, "user")})

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "mutation:pages.delete", denied.Path)
}

func TestGuardInternalErrorBecomesDenial(t *testing.T) {
	table := NewTable().Operation(Query, "pages", broken())
	guard := NewGuard(table, nil)

	err := guard.Authorize(context.Background(),
		Operation{Category: Query, Name: "pages"},
		&Request{Actor: actor(1, "user")})

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	// The internal cause stays server-side.
	assert.NotContains(t, denied.Reason, errLookupDown.Error())
	assert.Equal(t, "authorization check failed", denied.Reason)
}

func TestGuardRecoversPanickingPredicate(t *testing.T) {
	panicking := NewRule("panicking", func(context.Context, *Request) error {
		panic("nil map write")
	})
	table := NewTable().Operation(Query, "pages", panicking)
	guard := NewGuard(table, nil)

	err := guard.Authorize(context.Background(),
		Operation{Category: Query, Name: "pages"},
		&Request{Actor: actor(1, "user")})

	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "authorization check failed", denied.Reason)
}

// TestUserEmailVisibility exercises the field rule on User.email from the
// platform table: the user themselves and platform admins may read it,
// nobody else.
func TestUserEmailVisibility(t *testing.T) {
	guard := NewGuard(PlatformTable(), nil)
	op := Operation{Type: "User", Field: "email"}
	ctx := context.Background()

	owner := actor(5, model.RoleUser)
	admin := actor(9, model.RoleSuperAdmin)
	other := actor(6, model.RoleUser)

	assert.NoError(t, guard.Authorize(ctx, op, &Request{
		Actor: owner,
		Args:  map[string]interface{}{"user_id": uint(5)},
	}))
	assert.NoError(t, guard.Authorize(ctx, op, &Request{
		Actor: admin,
		Args:  map[string]interface{}{"user_id": uint(5)},
	}))

	var denied *DeniedError
	err := guard.Authorize(ctx, op, &Request{
		Actor: other,
		Args:  map[string]interface{}{"user_id": uint(5)},
	})
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "User.email", denied.Path)

	assert.ErrorIs(t, guard.Authorize(ctx, op, &Request{
		Args: map[string]interface{}{"user_id": uint(5)},
	}), ErrUnauthenticated)
}

func TestPlatformTableEmployeeMutations(t *testing.T) {
	guard := NewGuard(PlatformTable(), nil)
	op := Operation{Category: Mutation, Name: "employees.create"}
	ctx := context.Background()

	hr := actor(1, model.RoleUser)
	hr.Memberships = []Membership{{TenantID: 7, Role: model.TenantRoleAdmin, Active: true}}
	hr.Permissions = []string{"hr:manage"}

	plain := actor(2, model.RoleUser)
	plain.Memberships = []Membership{{TenantID: 7, Role: model.TenantRoleMember, Active: true}}

	assert.NoError(t, guard.Authorize(ctx, op, &Request{Actor: hr, TenantID: 7}))

	var denied *DeniedError
	assert.ErrorAs(t, guard.Authorize(ctx, op, &Request{Actor: plain, TenantID: 7}), &denied)
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, 401, HTTPStatus(ErrUnauthenticated))
	assert.Equal(t, 403, HTTPStatus(&DeniedError{Reason: "nope"}))
	assert.Equal(t, 500, HTTPStatus(errLookupDown))
}
