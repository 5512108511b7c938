package middleware

import "context"

type contextKey string

const ctxServiceName contextKey = "service_name"

// ServiceNameFromContext returns the authenticated caller name, or "" when
// the request was not authenticated.
func ServiceNameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxServiceName).(string); ok {
		return v
	}
	return ""
}
