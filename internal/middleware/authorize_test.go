package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-service/internal/authz"
	"platform-service/internal/model"
)

func testGuard() *authz.Guard {
	return authz.NewGuard(authz.PlatformTable(), nil)
}

// countingHandler stands in for a route handler backed by data access; its
// counter proves whether the request got past the authorization gate.
func countingHandler(calls *int) echo.HandlerFunc {
	return func(c echo.Context) error {
		*calls++
		return c.NoContent(http.StatusOK)
	}
}

func newContext(t *testing.T, method, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthorizeUnauthenticatedNeverReachesHandler(t *testing.T) {
	calls := 0
	mw := Authorize(testGuard(), authz.Query, "pages")
	c, rec := newContext(t, http.MethodGet, "/api/pages")

	err := mw(countingHandler(&calls))(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, calls)
	assert.Contains(t, rec.Body.String(), "authentication required")
}

func TestAuthorizeDeniedNeverReachesHandler(t *testing.T) {
	calls := 0
	mw := Authorize(testGuard(), authz.Query, "pages")
	c, rec := newContext(t, http.MethodGet, "/api/pages")

	// Authenticated but without a membership for the bound tenant.
	c.Set(actorKey, &authz.Actor{UserID: 1, Role: model.RoleUser})
	c.Set(tenantIDKey, uint(7))

	err := mw(countingHandler(&calls))(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, calls)
}

func TestAuthorizePassesTenantMember(t *testing.T) {
	calls := 0
	mw := Authorize(testGuard(), authz.Query, "pages")
	c, rec := newContext(t, http.MethodGet, "/api/pages")

	c.Set(actorKey, &authz.Actor{
		UserID:      1,
		Role:        model.RoleUser,
		Memberships: []authz.Membership{{TenantID: 7, Role: model.TenantRoleMember, Active: true}},
	})
	c.Set(tenantIDKey, uint(7))

	err := mw(countingHandler(&calls))(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestAuthorizeUnlistedOperationDefaultDeny(t *testing.T) {
	calls := 0
	table := authz.NewTable() // no entries, no defaults
	mw := Authorize(authz.NewGuard(table, nil), authz.Mutation, "anything")
	c, rec := newContext(t, http.MethodPost, "/api/anything")

	c.Set(actorKey, &authz.Actor{UserID: 1, Role: model.RoleSuperAdmin})

	err := mw(countingHandler(&calls))(c)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, calls)
}

func TestAuthorizeExposesPathParamsToRules(t *testing.T) {
	calls := 0
	table := authz.NewTable().Operation(authz.Query, "users.email", authz.IsSelf())
	mw := Authorize(authz.NewGuard(table, nil), authz.Query, "users.email")

	run := func(actorID uint) int {
		c, rec := newContext(t, http.MethodGet, "/api/users/5/email")
		c.SetParamNames("user_id")
		c.SetParamValues("5")
		c.Set(actorKey, &authz.Actor{UserID: actorID, Role: model.RoleUser})
		require.NoError(t, mw(countingHandler(&calls))(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run(5))
	assert.Equal(t, http.StatusForbidden, run(6))
	assert.Equal(t, 1, calls)
}

func TestRequireTenantContext(t *testing.T) {
	calls := 0

	unbound, rec := newContext(t, http.MethodGet, "/api/pages")
	require.NoError(t, RequireTenantContext(countingHandler(&calls))(unbound))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, calls)

	bound, rec := newContext(t, http.MethodGet, "/api/pages")
	bound.Set(tenantIDKey, uint(7))
	require.NoError(t, RequireTenantContext(countingHandler(&calls))(bound))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestSubdomainSlug(t *testing.T) {
	r := NewTenantResolver(nil, "example.com")

	tests := []struct {
		host string
		want string
	}{
		{"acme.example.com", "acme"},
		{"acme.example.com:8080", "acme"},
		{"example.com", ""},
		{"www.acme.example.com", ""},
		{"acme.other.com", ""},
		{".example.com", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.subdomainSlug(tt.host), "host %q", tt.host)
	}

	noBase := NewTenantResolver(nil, "")
	assert.Equal(t, "", noBase.subdomainSlug("acme.example.com"))
}
