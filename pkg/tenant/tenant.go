// Package tenant carries the tenant, branch and user identity of a request
// through context.Context. Background work receives an explicit copy at
// enqueue time, so nothing is shared between unrelated tasks.
package tenant

import "context"

type contextKey string

const scopeKey contextKey = "tenant_scope"

// Scope identifies who a piece of work runs on behalf of.
type Scope struct {
	TenantID string `json:"tenant_id"`
	BranchID string `json:"branch_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// IsZero reports whether no identity is present.
func (s Scope) IsZero() bool {
	return s.TenantID == "" && s.BranchID == "" && s.UserID == ""
}

// WithScope returns a copy of ctx carrying scope.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// FromContext returns the scope stored in ctx, or the zero Scope.
func FromContext(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	scope, _ := ctx.Value(scopeKey).(Scope)
	return scope
}

// TenantID is a shorthand for FromContext(ctx).TenantID.
func TenantID(ctx context.Context) string {
	return FromContext(ctx).TenantID
}

// Detach returns a fresh background context that carries only the scope of
// ctx. Deadlines, cancellation and other values of ctx are dropped.
func Detach(ctx context.Context) context.Context {
	return WithScope(context.Background(), FromContext(ctx))
}
