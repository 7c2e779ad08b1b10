package authz

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthenticated is returned when an operation requires a resolved
// identity and the caller has none. Mapped to 401 at the request boundary.
var ErrUnauthenticated = errors.New("authentication required")

// DeniedError is returned when an identified caller fails the rule bound
// to an operation. Mapped to 403 at the request boundary. Reason carries
// the rule's declared message; internal predicate failures are logged
// server-side and never echoed here.
type DeniedError struct {
	Path   string
	Reason string
}

func (e *DeniedError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("access denied: %s", e.Reason)
	}
	return fmt.Sprintf("access denied at %s: %s", e.Path, e.Reason)
}

// HTTPStatus maps an authorization error to its response status.
func HTTPStatus(err error) int {
	if errors.Is(err, ErrUnauthenticated) {
		return http.StatusUnauthorized
	}
	var denied *DeniedError
	if errors.As(err, &denied) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
