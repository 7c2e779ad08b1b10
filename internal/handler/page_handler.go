package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/internal/tenancy"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

// PageHandler serves CMS pages. Handlers are written tenant-naive: no
// query here filters on tenant_id, the tenancy plugin injects the
// boundary from the request context.
type PageHandler struct {
	db *gorm.DB
}

func NewPageHandler(db *gorm.DB) *PageHandler {
	return &PageHandler{db: db}
}

// Create creates a new page for the bound tenant
func (h *PageHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("page", "create")

	userID, _ := c.Get("user_id").(uint)

	var req struct {
		Slug    string `json:"slug"`
		Title   string `json:"title"`
		Content string `json:"content"`
		Status  string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Slug == "" || req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and title are required"})
	}
	if req.Status == "" {
		req.Status = model.PageStatusDraft
	}

	page := model.Page{
		Slug:      req.Slug,
		Title:     req.Title,
		Content:   req.Content,
		Status:    req.Status,
		CreatedBy: userID,
		UpdatedBy: userID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.db.WithContext(c.Request().Context()).Create(&page).Error; err != nil {
		return respondDBError(c, err, "page")
	}

	log.Info("Page created",
		zap.Uint("id", page.ID),
		zap.String("slug", page.Slug),
		zap.Uint("tenant_id", page.TenantID))
	return c.JSON(http.StatusCreated, page)
}

// List returns the bound tenant's pages, optionally filtered by status
func (h *PageHandler) List(c echo.Context) error {
	prometheus.RecordEntityOperation("page", "list")

	query := h.db.WithContext(c.Request().Context()).Model(&model.Page{})
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var pages []model.Page
	if err := query.Order("updated_at DESC").Find(&pages).Error; err != nil {
		return respondDBError(c, err, "page")
	}

	return c.JSON(http.StatusOK, echo.Map{"pages": pages, "count": len(pages)})
}

// Get retrieves one page by ID
func (h *PageHandler) Get(c echo.Context) error {
	prometheus.RecordEntityOperation("page", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var page model.Page
	if err := h.db.WithContext(c.Request().Context()).First(&page, uint(id)).Error; err != nil {
		return respondDBError(c, err, "page")
	}

	return c.JSON(http.StatusOK, page)
}

// Update updates a page's content fields
func (h *PageHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("page", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page ID"})
	}

	userID, _ := c.Get("user_id").(uint)

	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
		Status  *string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{"updated_by": userID}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := h.db.WithContext(c.Request().Context()).
		Model(&model.Page{}).
		Where("id = ?", uint(id)).
		Updates(updates)
	if result.Error != nil {
		return respondDBError(c, result.Error, "page")
	}
	if result.RowsAffected == 0 {
		// Either the page does not exist or it belongs to another tenant;
		// the two are indistinguishable by design.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "page not found"})
	}

	log.Info("Page updated", zap.Uint64("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "page updated"})
}

// Delete soft-deletes a page
func (h *PageHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("page", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.WithContext(c.Request().Context()).Delete(&model.Page{}, uint(id))
	if result.Error != nil {
		return respondDBError(c, result.Error, "page")
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "page not found"})
	}

	log.Info("Page deleted", zap.Uint64("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "page deleted"})
}

// AdminList lists pages across every tenant. Mounted under the platform
// admin group only, where the request context runs in explicit no-scoping
// mode and no tenant session can be active.
func (h *PageHandler) AdminList(c echo.Context) error {
	prometheus.RecordEntityOperation("page", "admin_list")

	ctx := c.Request().Context()
	if _, ok := tenancy.FromContext(ctx); !ok {
		// Admin routes must carry the explicit no-scoping binding.
		return respondDBError(c, tenancy.ErrNoTenantBinding, "page")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var pages []model.Page
	if err := h.db.WithContext(ctx).Order("tenant_id, updated_at DESC").Find(&pages).Error; err != nil {
		return respondDBError(c, err, "page")
	}

	return c.JSON(http.StatusOK, echo.Map{"pages": pages, "count": len(pages)})
}
