package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"platform-service/internal/authz"
	"platform-service/internal/model"
	"platform-service/pkg/jwtutil"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

const actorKey = "actor"

// AuthMiddleware validates the bearer token and resolves the caller into
// an authz.Actor. Memberships and permissions are re-resolved from the
// database on every request; authorization state is never cached across
// requests.
type AuthMiddleware struct {
	jwt *jwtutil.JWTUtil
	db  *gorm.DB
}

func NewAuthMiddleware(jwt *jwtutil.JWTUtil, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, db: db}
}

// Authenticate validates the JWT token from the Authorization header
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		actor, err := m.resolveActor(c, claims)
		if err != nil {
			log.Error("Failed to resolve caller identity", zap.Error(err))
			prometheus.RecordAuthError("actor_resolution_failed")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
		}

		c.Set(actorKey, actor)
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("claims", claims)

		log.Debug("Request authenticated",
			zap.Uint("user_id", claims.UserID),
			zap.String("role", actor.Role))

		return next(c)
	}
}

// resolveActor loads the caller's global role, memberships and permission
// set. Both tables are platform-global, so no tenant binding is needed.
func (m *AuthMiddleware) resolveActor(c echo.Context, claims *jwtutil.UserClaims) (*authz.Actor, error) {
	ctx := c.Request().Context()

	var user model.User
	if err := m.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		return nil, err
	}

	var memberships []model.TenantMembership
	if err := m.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", user.ID, true).
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	actor := &authz.Actor{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: user.Permissions,
	}
	for _, membership := range memberships {
		actor.Memberships = append(actor.Memberships, authz.Membership{
			TenantID: membership.TenantID,
			Role:     membership.Role,
			Active:   membership.Active,
		})
	}
	return actor, nil
}

// ActorFromEcho returns the resolved caller, or nil when the request is
// unauthenticated.
func ActorFromEcho(c echo.Context) *authz.Actor {
	actor, ok := c.Get(actorKey).(*authz.Actor)
	if !ok {
		return nil
	}
	return actor
}
