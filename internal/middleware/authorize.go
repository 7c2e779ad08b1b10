package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"platform-service/internal/authz"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

// Authorize gates a route on the guard's rule for the given operation.
// Evaluation runs before the handler, so a denied request never reaches
// data access. Path parameters are exposed to rules as arguments.
func Authorize(guard *authz.Guard, category authz.Category, name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			op := authz.Operation{Category: category, Name: name}
			req := &authz.Request{
				Actor:    ActorFromEcho(c),
				TenantID: TenantIDFromEcho(c),
				Args:     paramArgs(c),
			}

			if err := guard.Authorize(c.Request().Context(), op, req); err != nil {
				return DenyJSON(c, err)
			}

			return next(c)
		}
	}
}

// DenyJSON converts an authorization error into the client-facing
// response. Authentication failures get a generic message; denials carry
// the rule's declared reason.
func DenyJSON(c echo.Context, err error) error {
	log := logger.FromEcho(c)

	if errors.Is(err, authz.ErrUnauthenticated) {
		prometheus.RecordAuthError("unauthenticated")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var denied *authz.DeniedError
	if errors.As(err, &denied) {
		prometheus.RecordAuthzDenial(denied.Path)
		return c.JSON(http.StatusForbidden, echo.Map{"error": denied.Reason})
	}

	log.Error("Unexpected authorization error")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func paramArgs(c echo.Context) map[string]interface{} {
	names := c.ParamNames()
	if len(names) == 0 {
		return nil
	}
	args := make(map[string]interface{}, len(names))
	for _, name := range names {
		args[name] = c.Param(name)
	}
	return args
}
