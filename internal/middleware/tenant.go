package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/internal/tenancy"
	"platform-service/pkg/jwtutil"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

const tenantIDKey = "tenant_id"

// TenantResolver resolves the tenant a request operates under and binds it
// onto the request context for the tenancy plugin. Resolution order:
// explicit X-Tenant-ID header, subdomain of the request host, then the
// tenant claim carried by the session token.
type TenantResolver struct {
	db         *gorm.DB
	baseDomain string
}

func NewTenantResolver(db *gorm.DB, baseDomain string) *TenantResolver {
	return &TenantResolver{db: db, baseDomain: baseDomain}
}

// Resolve binds the resolved tenant onto the request context. Requests
// that resolve no tenant proceed unbound; tenant route groups reject them
// via RequireTenantContext, and the tenancy plugin fails closed should a
// tenant-owned table be reached regardless.
func (r *TenantResolver) Resolve(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		tenant, err := r.lookupTenant(c)
		if err != nil {
			log.Warn("Tenant resolution failed", zap.Error(err))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "unknown tenant"})
		}
		if tenant == nil {
			return next(c)
		}

		if tenant.Status != model.TenantStatusActive {
			log.Warn("Tenant is not active",
				zap.Uint("tenant_id", tenant.ID),
				zap.String("status", tenant.Status))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant is not active"})
		}

		actor := ActorFromEcho(c)
		if actor != nil && !actor.IsSuperAdmin() {
			membership, ok := actor.MembershipFor(tenant.ID)
			if !ok || !membership.Active {
				log.Warn("Caller is not a member of the resolved tenant",
					zap.Uint("user_id", actor.UserID),
					zap.Uint("tenant_id", tenant.ID))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "not a member of this tenant"})
			}
		}

		ctx := tenancy.WithTenant(c.Request().Context(), tenant.ID)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Set(tenantIDKey, tenant.ID)
		c.Set("tenant_slug", tenant.Slug)

		log.Debug("Tenant context bound",
			zap.Uint("tenant_id", tenant.ID),
			zap.String("tenant_slug", tenant.Slug))

		return next(c)
	}
}

func (r *TenantResolver) lookupTenant(c echo.Context) (*model.Tenant, error) {
	ctx := c.Request().Context()

	if header := c.Request().Header.Get("X-Tenant-ID"); header != "" {
		id, err := strconv.ParseUint(header, 10, 32)
		if err != nil {
			return nil, err
		}
		var tenant model.Tenant
		if err := r.db.WithContext(ctx).First(&tenant, uint(id)).Error; err != nil {
			return nil, err
		}
		return &tenant, nil
	}

	if slug := r.subdomainSlug(c.Request().Host); slug != "" {
		var tenant model.Tenant
		if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error; err != nil {
			return nil, err
		}
		return &tenant, nil
	}

	if claims, ok := c.Get("claims").(*jwtutil.UserClaims); ok && claims.TenantID != nil {
		var tenant model.Tenant
		if err := r.db.WithContext(ctx).First(&tenant, *claims.TenantID).Error; err != nil {
			return nil, err
		}
		return &tenant, nil
	}

	return nil, nil
}

// subdomainSlug extracts the tenant slug from "slug.basedomain" hosts.
func (r *TenantResolver) subdomainSlug(host string) string {
	if r.baseDomain == "" {
		return ""
	}
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	suffix := "." + r.baseDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	slug := strings.TrimSuffix(host, suffix)
	if slug == "" || strings.Contains(slug, ".") {
		return ""
	}
	return slug
}

// RequireTenantContext rejects requests reaching tenant-scoped routes
// without a bound tenant.
func RequireTenantContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		tenantID, ok := c.Get(tenantIDKey).(uint)
		if !ok || tenantID == 0 {
			log.Warn("Missing tenant context")
			prometheus.TenantContextMissingCounter.Inc()
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":   "tenant context required",
				"message": "Please select a tenant before accessing this resource",
			})
		}

		return next(c)
	}
}

// PlatformScope marks the request as a platform-level administrative code
// path running without tenant scoping. It must only be mounted on route
// groups that never resolve a tenant; the tenancy plugin rejects the
// combination otherwise.
func PlatformScope(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := tenancy.WithoutTenant(c.Request().Context())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// TenantIDFromEcho returns the bound tenant, or zero when none is bound.
func TenantIDFromEcho(c echo.Context) uint {
	tenantID, ok := c.Get(tenantIDKey).(uint)
	if !ok {
		return 0
	}
	return tenantID
}
