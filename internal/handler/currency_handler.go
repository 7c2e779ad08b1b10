package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/prometheus"
)

// CurrencyHandler serves the platform-global currency catalog. The table
// is not on the tenancy allow-list, so these queries run identically with
// or without a tenant bound.
type CurrencyHandler struct {
	db *gorm.DB
}

func NewCurrencyHandler(db *gorm.DB) *CurrencyHandler {
	return &CurrencyHandler{db: db}
}

// List returns every currency in the catalog
func (h *CurrencyHandler) List(c echo.Context) error {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var currencies []model.Currency
	if err := h.db.WithContext(c.Request().Context()).Order("code").Find(&currencies).Error; err != nil {
		return respondDBError(c, err, "currency")
	}

	return c.JSON(http.StatusOK, echo.Map{"currencies": currencies})
}
