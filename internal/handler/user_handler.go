package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"platform-service/internal/authz"
	"platform-service/internal/middleware"
	"platform-service/internal/model"
	"platform-service/prometheus"
)

// UserHandler serves user profile data. Email visibility is gated by a
// field-level rule: a user sees their own email, platform admins see any.
type UserHandler struct {
	db    *gorm.DB
	guard *authz.Guard
}

func NewUserHandler(db *gorm.DB, guard *authz.Guard) *UserHandler {
	return &UserHandler{db: db, guard: guard}
}

// GetProfile returns the caller's own profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := h.db.WithContext(c.Request().Context()).First(&user, userID).Error; err != nil {
		return respondDBError(c, err, "user")
	}

	return c.JSON(http.StatusOK, user)
}

// GetEmail returns another user's email address, subject to the
// User.email field rule.
func (h *UserHandler) GetEmail(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	op := authz.Operation{Type: "User", Field: "email"}
	req := &authz.Request{
		Actor:    middleware.ActorFromEcho(c),
		TenantID: middleware.TenantIDFromEcho(c),
		Args:     map[string]interface{}{"user_id": uint(id)},
	}
	if err := h.guard.Authorize(c.Request().Context(), op, req); err != nil {
		return middleware.DenyJSON(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := h.db.WithContext(c.Request().Context()).First(&user, uint(id)).Error; err != nil {
		return respondDBError(c, err, "user")
	}

	return c.JSON(http.StatusOK, echo.Map{"user_id": user.ID, "email": user.Email})
}
