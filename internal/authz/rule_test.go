package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errLookupDown = errors.New("membership lookup unavailable")

// broken simulates a predicate whose backing lookup failed.
func broken() Rule {
	return NewRule("broken", func(context.Context, *Request) error {
		return errLookupDown
	})
}

func actor(userID uint, role string) *Actor {
	return &Actor{UserID: userID, Email: "user@example.com", Role: role}
}

func TestIsAuthenticated(t *testing.T) {
	ctx := context.Background()
	r := IsAuthenticated()

	assert.ErrorIs(t, r.Evaluate(ctx, &Request{}), ErrUnauthenticated)
	assert.NoError(t, r.Evaluate(ctx, &Request{Actor: actor(1, "user")}))
}

func TestIsSelf(t *testing.T) {
	ctx := context.Background()
	r := IsSelf()

	tests := []struct {
		name string
		req  *Request
		pass bool
	}{
		{"owner via args", &Request{Actor: actor(5, "user"), Args: map[string]interface{}{"user_id": uint(5)}}, true},
		{"owner via parent", &Request{Actor: actor(5, "user"), Parent: map[string]interface{}{"user_id": uint(5)}}, true},
		{"string id from path param", &Request{Actor: actor(5, "user"), Args: map[string]interface{}{"user_id": "5"}}, true},
		{"other user", &Request{Actor: actor(5, "user"), Args: map[string]interface{}{"user_id": uint(6)}}, false},
		{"owner unresolvable", &Request{Actor: actor(5, "user")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Evaluate(ctx, tt.req)
			if tt.pass {
				assert.NoError(t, err)
			} else {
				var denied *DeniedError
				assert.ErrorAs(t, err, &denied)
			}
		})
	}
}

func TestIsTenantMember(t *testing.T) {
	ctx := context.Background()
	r := IsTenantMember()

	member := actor(1, "user")
	member.Memberships = []Membership{{TenantID: 7, Role: "admin", Active: true}}

	inactive := actor(2, "user")
	inactive.Memberships = []Membership{{TenantID: 7, Role: "member", Active: false}}

	assert.NoError(t, r.Evaluate(ctx, &Request{Actor: member, TenantID: 7}))

	var denied *DeniedError
	assert.ErrorAs(t, r.Evaluate(ctx, &Request{Actor: member, TenantID: 8}), &denied)
	assert.ErrorAs(t, r.Evaluate(ctx, &Request{Actor: inactive, TenantID: 7}), &denied)
	assert.ErrorAs(t, r.Evaluate(ctx, &Request{Actor: member}), &denied)

	// SuperAdmin needs no membership relation.
	assert.NoError(t, r.Evaluate(ctx, &Request{Actor: actor(3, "superadmin"), TenantID: 7}))
}

func TestHasPermission(t *testing.T) {
	ctx := context.Background()
	r := HasPermission("hr:manage")

	granted := actor(1, "user")
	granted.Permissions = []string{"hr:manage"}

	assert.NoError(t, r.Evaluate(ctx, &Request{Actor: granted}))

	var denied *DeniedError
	assert.ErrorAs(t, r.Evaluate(ctx, &Request{Actor: actor(2, "user")}), &denied)
}

func TestAndStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	req := &Request{Actor: actor(1, "user")}

	assert.NoError(t, And(Allow(), Allow()).Evaluate(ctx, req))

	var denied *DeniedError
	assert.ErrorAs(t, And(Allow(), Deny()).Evaluate(ctx, req), &denied)
	assert.ErrorIs(t, And(broken(), Deny()).Evaluate(ctx, req), errLookupDown)
}

func TestOrPassesOnAnySuccess(t *testing.T) {
	ctx := context.Background()
	req := &Request{Actor: actor(1, "user")}

	assert.NoError(t, Or(Deny(), Allow()).Evaluate(ctx, req))

	var denied *DeniedError
	assert.ErrorAs(t, Or(Deny(), Deny()).Evaluate(ctx, req), &denied)
}

func TestOrSurfacesBrokenPredicate(t *testing.T) {
	// A disjunction where one branch broke must not report a clean denial:
	// the internal error propagates so the Guard logs it.
	err := Or(broken(), Deny()).Evaluate(context.Background(), &Request{Actor: actor(1, "user")})
	assert.ErrorIs(t, err, errLookupDown)
}

func TestOrAllUnauthenticated(t *testing.T) {
	err := Or(IsAuthenticated(), IsRole("superadmin")).Evaluate(context.Background(), &Request{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestNotNeverInvertsBrokenPredicate(t *testing.T) {
	ctx := context.Background()
	req := &Request{Actor: actor(1, "user")}

	assert.NoError(t, Not(Deny()).Evaluate(ctx, req))

	var denied *DeniedError
	assert.ErrorAs(t, Not(Allow()).Evaluate(ctx, req), &denied)

	// An internal error inside the child is a failure on both sides of the
	// negation.
	assert.ErrorIs(t, Not(broken()).Evaluate(ctx, req), errLookupDown)
}

func TestCombinatorNames(t *testing.T) {
	r := Or(IsSelf(), IsRole("superadmin"))
	assert.Equal(t, "or(isSelf, isRole(superadmin))", r.Name())
	assert.Equal(t, "not(deny)", Not(Deny()).Name())
}
