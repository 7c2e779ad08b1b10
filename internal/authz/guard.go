package authz

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Guard evaluates the rule bound to an operation before it resolves.
// Evaluation strictly precedes data access: a denial means the underlying
// operation is never issued.
type Guard struct {
	table *Table
	log   *zap.Logger
}

// NewGuard builds a guard over the given rule table.
func NewGuard(table *Table, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{table: table, log: log}
}

// Authorize resolves and evaluates the operation's rule. It returns nil on
// pass, ErrUnauthenticated or *DeniedError on failure. A predicate that
// errors internally or panics is treated as a denial; the cause is logged
// with the failing path and never surfaced to the client.
func (g *Guard) Authorize(ctx context.Context, op Operation, req *Request) (err error) {
	path := op.Path()

	defer func() {
		if r := recover(); r != nil {
			g.log.Error("authorization predicate panicked",
				zap.String("path", path),
				zap.Any("panic", r))
			err = &DeniedError{Path: path, Reason: "authorization check failed"}
		}
	}()

	r, ok := g.table.Resolve(op)
	if !ok {
		// Default-deny: the rule table is necessarily incomplete relative
		// to the full surface, so an unlisted operation is never allowed.
		g.log.Warn("no authorization rule declared, denying",
			zap.String("path", path))
		return &DeniedError{Path: path, Reason: "operation is not permitted"}
	}

	ruleErr := r.Evaluate(ctx, req)
	if ruleErr == nil {
		return nil
	}

	if errors.Is(ruleErr, ErrUnauthenticated) {
		return ErrUnauthenticated
	}

	var denied *DeniedError
	if errors.As(ruleErr, &denied) {
		if denied.Path == "" {
			denied.Path = path
		}
		return denied
	}

	// The predicate itself broke (e.g. a downstream lookup failed). That is
	// a failure, never a pass; the internal cause stays server-side.
	g.log.Error("authorization predicate failed",
		zap.String("path", path),
		zap.String("rule", r.Name()),
		zap.Error(ruleErr))
	return &DeniedError{Path: path, Reason: "authorization check failed"}
}
