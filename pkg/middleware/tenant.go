// Package middleware provides shared request-context helpers.
//
// This package lives in pkg/ (not internal/) so an enterprise build can
// use GetTenant()/SetTenant() and GetObserver()/SetObserver() in its own
// middleware without importing internal packages.
package middleware

import "context"

type contextKey string

const tenantKey contextKey = "tenant"

// GetTenant extracts the tenant name from the context — the optional
// multi-tenancy scope query() accepts. Returns "default" if no tenant
// is set.
func GetTenant(ctx context.Context) string {
	if v, ok := ctx.Value(tenantKey).(string); ok && v != "" {
		return v
	}
	return "default"
}

// SetTenant stores the tenant name in the context.
func SetTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey, tenant)
}
