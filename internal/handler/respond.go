package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"platform-service/internal/tenancy"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

// respondDBError maps a data-access error to the client response. Tenancy
// fail-closed sentinels are wiring bugs: they are logged at error severity
// and surfaced as opaque 500s, never degraded into unscoped results.
func respondDBError(c echo.Context, err error, entity string) error {
	log := logger.FromEcho(c)

	switch {
	case errors.Is(err, tenancy.ErrNoTenantBinding), errors.Is(err, tenancy.ErrUnscopedTenantSession):
		prometheus.TenancyRejectionCounter.Inc()
		log.Error("Tenancy misconfiguration, rejecting operation",
			zap.String("entity", entity),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": entity + " not found"})
	default:
		log.Error("Database operation failed",
			zap.String("entity", entity),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
