package prometheus

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var RequestDurationHistogram = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "platform_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "path"},
)

var AuthErrorCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "platform_auth_errors_total",
		Help: "Total number of authentication errors by reason",
	},
	[]string{"reason"},
)

var AuthzDenialCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "platform_authz_denials_total",
		Help: "Total number of authorization denials by path",
	},
	[]string{"path"},
)

var TenancyRejectionCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "platform_tenancy_rejections_total",
		Help: "Total number of operations rejected by the tenancy layer (fail-closed)",
	},
)

var TenantContextMissingCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "platform_tenant_context_missing_total",
		Help: "Total number of requests hitting tenant routes without tenant context",
	},
)

var TenantOperationCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "platform_tenant_operations_total",
		Help: "Total number of tenant management operations",
	},
	[]string{"operation"},
)

var EntityOperationCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "platform_entity_operations_total",
		Help: "Total number of tenant-scoped entity operations",
	},
	[]string{"entity", "operation"},
)

var DBOperationDurationHistogram = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "platform_db_operation_duration_seconds",
		Help:    "Duration of database operations in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation"},
)

func init() {
	prometheus.MustRegister(RequestDurationHistogram)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(AuthzDenialCounter)
	prometheus.MustRegister(TenancyRejectionCounter)
	prometheus.MustRegister(TenantContextMissingCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(EntityOperationCounter)
	prometheus.MustRegister(DBOperationDurationHistogram)
}

// RecordAuthError increments the authentication error counter
func RecordAuthError(reason string) {
	AuthErrorCounter.WithLabelValues(reason).Inc()
}

// RecordAuthzDenial increments the authorization denial counter
func RecordAuthzDenial(path string) {
	AuthzDenialCounter.WithLabelValues(path).Inc()
}

// RecordTenantOperation increments the tenant operation counter
func RecordTenantOperation(operation string) {
	TenantOperationCounter.WithLabelValues(operation).Inc()
}

// RecordEntityOperation increments the entity operation counter
func RecordEntityOperation(entity, operation string) {
	EntityOperationCounter.WithLabelValues(entity, operation).Inc()
}

// TrackDBOperation returns a function that records the duration of a
// database operation when invoked, for use with defer:
//
//	defer prometheus.TrackDBOperation("query")(time.Now())
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDurationHistogram.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// GetPrometheusHandler returns the /metrics handler
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware is an Echo middleware function that records HTTP request metrics
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			method := c.Request().Method
			path := c.Path()

			duration := time.Since(start).Seconds()
			RequestDurationHistogram.WithLabelValues(method, path).Observe(duration)

			return err
		}
	}
}
