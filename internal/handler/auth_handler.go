package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/pkg/jwtutil"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

// AuthHandler serves registration, login and tenant selection. All of its
// queries hit platform-global tables only.
type AuthHandler struct {
	db  *gorm.DB
	jwt *jwtutil.JWTUtil
}

func NewAuthHandler(db *gorm.DB, jwt *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt}
}

// Register creates a new user account
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     model.RoleUser,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.WithContext(c.Request().Context()).Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.String("email", req.Email), zap.Error(result.Error))
		prometheus.RecordAuthError("registration_failed")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email is already registered"})
	}

	log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{"message": "registration successful", "user": user})
}

// Login verifies credentials and issues a session token. When the user has
// a default tenant membership the token is bound to that tenant.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		TenantID *uint  `json:"tenant_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := h.db.WithContext(ctx).Where("email = ?", req.Email).First(&user); result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	membership, err := h.membershipForLogin(c, user.ID, req.TenantID)
	if err != nil {
		prometheus.RecordAuthError("tenant_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no access to the requested tenant"})
	}

	token, err := h.issueToken(c, &user, membership)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	log.Info("User logged in", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// SelectTenant re-issues the session token bound to another tenant the
// caller is a member of.
func (h *AuthHandler) SelectTenant(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		TenantID uint `json:"tenant_id"`
	}
	if err := c.Bind(&req); err != nil || req.TenantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	var user model.User
	if result := h.db.WithContext(ctx).First(&user, userID); result.Error != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
	}

	membership, err := h.membershipForLogin(c, userID, &req.TenantID)
	if err != nil {
		prometheus.RecordAuthError("tenant_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no access to the requested tenant"})
	}

	token, err := h.issueToken(c, &user, membership)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant selection failed"})
	}

	log.Info("Tenant selected", zap.Uint("user_id", userID), zap.Uint("tenant_id", req.TenantID))
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// membershipForLogin returns the membership to bind the session to: the
// explicitly requested tenant (verified), or the user's default tenant.
// A nil membership with nil error means an unbound session.
func (h *AuthHandler) membershipForLogin(c echo.Context, userID uint, tenantID *uint) (*model.TenantMembership, error) {
	ctx := c.Request().Context()

	query := h.db.WithContext(ctx).Where("user_id = ? AND active = ?", userID, true)
	if tenantID != nil {
		var membership model.TenantMembership
		if err := query.Where("tenant_id = ?", *tenantID).First(&membership).Error; err != nil {
			return nil, err
		}
		return &membership, nil
	}

	var membership model.TenantMembership
	if err := query.Where("is_default = ?", true).First(&membership).Error; err != nil {
		// No default tenant: the session starts unbound.
		return nil, nil
	}
	return &membership, nil
}

func (h *AuthHandler) issueToken(c echo.Context, user *model.User, membership *model.TenantMembership) (string, error) {
	if membership == nil {
		return h.jwt.GenerateToken(user.Email, user.ID, user.Role)
	}

	var tenant model.Tenant
	if err := h.db.WithContext(c.Request().Context()).First(&tenant, membership.TenantID).Error; err != nil {
		return "", err
	}
	return h.jwt.GenerateTokenWithTenant(user.Email, user.ID, user.Role, &membership.TenantID, tenant.Slug, membership.Role)
}
