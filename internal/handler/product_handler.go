package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"platform-service/internal/model"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

// ProductHandler serves the commerce catalog. Tenant-naive like the other
// entity handlers; the SKU is unique per tenant, not globally.
type ProductHandler struct {
	db *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

type productRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	Stock       int    `json:"stock"`
	IsActive    bool   `json:"is_active"`
}

// Create creates a new product for the bound tenant
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("product", "create")

	userID, _ := c.Get("user_id").(uint)

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.SKU == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sku and name are required"})
	}

	product := model.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		Stock:       req.Stock,
		IsActive:    req.IsActive,
		CreatedBy:   userID,
		UpdatedBy:   userID,
	}
	if product.Currency == "" {
		product.Currency = "USD"
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.db.WithContext(c.Request().Context()).Create(&product).Error; err != nil {
		return respondDBError(c, err, "product")
	}

	log.Info("Product created",
		zap.Uint("id", product.ID),
		zap.String("sku", product.SKU),
		zap.Uint("tenant_id", product.TenantID))
	return c.JSON(http.StatusCreated, product)
}

// Upsert inserts the product, or updates it when the tenant already has
// one with the same SKU. The conflict target is the per-tenant unique
// index, so another tenant's product can never be the matched row.
func (h *ProductHandler) Upsert(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("product", "upsert")

	userID, _ := c.Get("user_id").(uint)

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.SKU == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sku and name are required"})
	}

	product := model.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		Stock:       req.Stock,
		IsActive:    req.IsActive,
		CreatedBy:   userID,
		UpdatedBy:   userID,
	}
	if product.Currency == "" {
		product.Currency = "USD"
	}

	defer prometheus.TrackDBOperation("upsert")(time.Now())
	err := h.db.WithContext(c.Request().Context()).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "price_cents", "currency", "stock", "is_active", "updated_by",
			}),
		}).
		Create(&product).Error
	if err != nil {
		return respondDBError(c, err, "product")
	}

	log.Info("Product upserted",
		zap.String("sku", product.SKU),
		zap.Uint("tenant_id", product.TenantID))
	return c.JSON(http.StatusOK, product)
}

// List returns the bound tenant's products
func (h *ProductHandler) List(c echo.Context) error {
	prometheus.RecordEntityOperation("product", "list")

	query := h.db.WithContext(c.Request().Context()).Model(&model.Product{})
	if active := c.QueryParam("active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var products []model.Product
	if err := query.Order("name").Find(&products).Error; err != nil {
		return respondDBError(c, err, "product")
	}

	return c.JSON(http.StatusOK, echo.Map{"products": products, "count": len(products)})
}

// Get retrieves one product by ID
func (h *ProductHandler) Get(c echo.Context) error {
	prometheus.RecordEntityOperation("product", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var product model.Product
	if err := h.db.WithContext(c.Request().Context()).First(&product, uint(id)).Error; err != nil {
		return respondDBError(c, err, "product")
	}

	return c.JSON(http.StatusOK, product)
}

// UpdateStock adjusts the stock level of one product
func (h *ProductHandler) UpdateStock(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("product", "update_stock")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product ID"})
	}

	var req struct {
		Stock int `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := h.db.WithContext(c.Request().Context()).
		Model(&model.Product{}).
		Where("id = ?", uint(id)).
		Update("stock", req.Stock)
	if result.Error != nil {
		return respondDBError(c, result.Error, "product")
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	log.Info("Product stock updated", zap.Uint64("id", id), zap.Int("stock", req.Stock))
	return c.JSON(http.StatusOK, echo.Map{"message": "stock updated"})
}

// Delete soft-deletes a product
func (h *ProductHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("product", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.WithContext(c.Request().Context()).Delete(&model.Product{}, uint(id))
	if result.Error != nil {
		return respondDBError(c, result.Error, "product")
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	log.Info("Product deleted", zap.Uint64("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted"})
}
