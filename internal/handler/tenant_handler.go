package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

// TenantHandler serves tenant lifecycle and membership management. All of
// its tables are platform-global.
type TenantHandler struct {
	db *gorm.DB
}

func NewTenantHandler(db *gorm.DB) *TenantHandler {
	return &TenantHandler{db: db}
}

// Create handles tenant creation: the tenant row and the creator's owner
// membership are written in one transaction.
func (h *TenantHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("create")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Slug        string `json:"slug"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Plan        string `json:"plan"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Slug == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and name are required"})
	}
	if req.Plan == "" {
		req.Plan = "free"
	}

	tenant := model.Tenant{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
		Status:      model.TenantStatusActive,
		Plan:        req.Plan,
		Features:    []string{model.FeatureCMS},
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := h.db.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(&tenant); result.Error != nil {
			return result.Error
		}
		membership := model.TenantMembership{
			UserID:    userID,
			TenantID:  tenant.ID,
			Role:      model.TenantRoleOwner,
			IsDefault: true,
			Active:    true,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		log.Error("Failed to create tenant", zap.String("slug", req.Slug), zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": "tenant creation failed"})
	}

	log.Info("Tenant created",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("slug", tenant.Slug),
		zap.Uint("owner_id", userID))
	return c.JSON(http.StatusCreated, echo.Map{"message": "tenant created successfully", "tenant": tenant})
}

// List returns the tenants the caller is a member of
func (h *TenantHandler) List(c echo.Context) error {
	prometheus.RecordTenantOperation("list")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var memberships []model.TenantMembership
	if err := h.db.WithContext(c.Request().Context()).
		Preload("Tenant").
		Where("user_id = ? AND active = ?", userID, true).
		Find(&memberships).Error; err != nil {
		return respondDBError(c, err, "tenant")
	}

	return c.JSON(http.StatusOK, echo.Map{"memberships": memberships})
}

// Get retrieves tenant details
func (h *TenantHandler) Get(c echo.Context) error {
	prometheus.RecordTenantOperation("get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if err := h.db.WithContext(c.Request().Context()).First(&tenant, uint(id)).Error; err != nil {
		return respondDBError(c, err, "tenant")
	}

	return c.JSON(http.StatusOK, tenant)
}

// AddMember adds a user to the bound tenant
func (h *TenantHandler) AddMember(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("add_member")

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok || tenantID == 0 {
		prometheus.TenantContextMissingCounter.Inc()
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant context required"})
	}

	var req struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	if req.Role == "" {
		req.Role = model.TenantRoleMember
	}

	membership := model.TenantMembership{
		UserID:   req.UserID,
		TenantID: tenantID,
		Role:     req.Role,
		Active:   true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.db.WithContext(c.Request().Context()).Create(&membership).Error; err != nil {
		log.Error("Failed to add member",
			zap.Uint("tenant_id", tenantID),
			zap.Uint("user_id", req.UserID),
			zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": "membership creation failed"})
	}

	log.Info("Member added", zap.Uint("tenant_id", tenantID), zap.Uint("user_id", req.UserID))
	return c.JSON(http.StatusCreated, membership)
}

// UpdateFeatures replaces the tenant's enabled feature flags. Platform
// admin only; every flag must come from the closed catalog.
func (h *TenantHandler) UpdateFeatures(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("update_features")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var req struct {
		Features []string `json:"features"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	for _, feature := range req.Features {
		if !model.IsKnownFeature(feature) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown feature: " + feature})
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := h.db.WithContext(c.Request().Context()).
		Model(&model.Tenant{}).
		Where("id = ?", uint(id)).
		Update("features", pq.StringArray(req.Features))
	if result.Error != nil {
		return respondDBError(c, result.Error, "tenant")
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	log.Info("Tenant features updated", zap.Uint64("tenant_id", id), zap.Strings("features", req.Features))
	return c.JSON(http.StatusOK, echo.Map{"message": "features updated"})
}

// UpdateStatus transitions the tenant between active/inactive/suspended.
// Tenants are never hard-deleted.
func (h *TenantHandler) UpdateStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordTenantOperation("update_status")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	switch req.Status {
	case model.TenantStatusActive, model.TenantStatusInactive, model.TenantStatusSuspended:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := h.db.WithContext(c.Request().Context()).
		Model(&model.Tenant{}).
		Where("id = ?", uint(id)).
		Update("status", req.Status)
	if result.Error != nil {
		return respondDBError(c, result.Error, "tenant")
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	log.Info("Tenant status updated", zap.Uint64("tenant_id", id), zap.String("status", req.Status))
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}
