package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Request is the evaluation input for a rule: the caller identity, the
// tenant in scope, the operation arguments and the resolved parent object.
type Request struct {
	Actor    *Actor
	TenantID uint
	Args     map[string]interface{}
	Parent   map[string]interface{}
}

// Rule is a named predicate over a request. Evaluate returns nil on pass,
// ErrUnauthenticated or *DeniedError on a clean failure, and any other
// error when the predicate itself broke (treated as a denial by the Guard).
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, req *Request) error
}

type rule struct {
	name string
	fn   func(ctx context.Context, req *Request) error
}

func (r rule) Name() string { return r.name }

func (r rule) Evaluate(ctx context.Context, req *Request) error { return r.fn(ctx, req) }

// NewRule wraps a predicate function into a named rule. Custom predicates
// (e.g. ones performing their own lookups) are built through this.
func NewRule(name string, fn func(ctx context.Context, req *Request) error) Rule {
	return rule{name: name, fn: fn}
}

// Allow always passes.
func Allow() Rule {
	return rule{name: "allow", fn: func(context.Context, *Request) error { return nil }}
}

// Deny always fails.
func Deny() Rule {
	return rule{name: "deny", fn: func(context.Context, *Request) error {
		return &DeniedError{Reason: "operation is not permitted"}
	}}
}

// And passes iff every child passes, stopping at the first failure.
func And(rules ...Rule) Rule {
	return rule{
		name: combinatorName("and", rules),
		fn: func(ctx context.Context, req *Request) error {
			for _, r := range rules {
				if err := r.Evaluate(ctx, req); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Or passes iff any child passes, stopping at the first success. When every
// child cleanly fails the denial names the whole disjunction; a broken
// predicate error is surfaced so the Guard logs it instead of passing.
func Or(rules ...Rule) Rule {
	name := combinatorName("or", rules)
	return rule{
		name: name,
		fn: func(ctx context.Context, req *Request) error {
			var lastErr error
			allUnauthenticated := true
			for _, r := range rules {
				err := r.Evaluate(ctx, req)
				if err == nil {
					return nil
				}
				if !isCleanFailure(err) {
					return err
				}
				if !errors.Is(err, ErrUnauthenticated) {
					allUnauthenticated = false
				}
				lastErr = err
			}
			if lastErr == nil {
				return &DeniedError{Reason: "operation is not permitted"}
			}
			if allUnauthenticated {
				return ErrUnauthenticated
			}
			return &DeniedError{Reason: fmt.Sprintf("requires %s", name)}
		},
	}
}

// Not inverts a clean failure of its child. A broken predicate error is NOT
// inverted: it propagates as a failure so an internal error can never turn
// into a pass.
func Not(r Rule) Rule {
	name := fmt.Sprintf("not(%s)", r.Name())
	return rule{
		name: name,
		fn: func(ctx context.Context, req *Request) error {
			err := r.Evaluate(ctx, req)
			if err == nil {
				return &DeniedError{Reason: fmt.Sprintf("requires %s", name)}
			}
			if isCleanFailure(err) {
				return nil
			}
			return err
		},
	}
}

// isCleanFailure distinguishes declared denials from predicates that broke.
func isCleanFailure(err error) bool {
	if errors.Is(err, ErrUnauthenticated) {
		return true
	}
	var denied *DeniedError
	return errors.As(err, &denied)
}

func combinatorName(op string, rules []Rule) string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name()
	}
	return fmt.Sprintf("%s(%s)", op, strings.Join(names, ", "))
}
