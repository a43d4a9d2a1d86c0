// Package middleware provides HTTP middleware for Foreman.
package middleware

import (
	"context"
	"net/http"
)

// DefaultCompanyID is the single-company default used when no X-Company-ID
// header is set.
const DefaultCompanyID = "00000000-0000-0000-0000-000000000000"

const headerCompanyID = "X-Company-ID"

type companyCtxKey struct{}

// CompanyID is middleware that extracts the company scope from the
// X-Company-ID header and stores it in the request context. The scope is the
// authorization boundary for every resolver and dispatcher call downstream.
func CompanyID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(headerCompanyID)
		if cid == "" {
			cid = DefaultCompanyID
		}
		ctx := context.WithValue(r.Context(), companyCtxKey{}, cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CompanyIDFromContext returns the company ID stored in ctx, or
// DefaultCompanyID if absent.
func CompanyIDFromContext(ctx context.Context) string {
	if cid, ok := ctx.Value(companyCtxKey{}).(string); ok {
		return cid
	}
	return DefaultCompanyID
}

// WithCompanyID returns a context carrying the given company scope. Used by
// background workers that act outside an HTTP request.
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, companyCtxKey{}, companyID)
}
