package tenant

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// HeaderCompanyID carries the tenant on every API request.
const HeaderCompanyID = "X-Company-ID"

// ErrMissingScope indicates a request or call without a tenant.
var ErrMissingScope = errors.New("tenant: company scope required")

// Scope identifies the company every storage operation is bound to.
// Repositories take it explicitly so that no query can be written
// without a company filter.
type Scope struct {
	CompanyID uuid.UUID
}

// Valid reports whether the scope carries a usable company id.
func (s Scope) Valid() bool {
	return s.CompanyID != uuid.Nil
}

type scopeContextKey struct{}

// ContextWithScope stores the tenant scope in context.
func ContextWithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext extracts the tenant scope from context.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(scopeContextKey{}).(Scope)
	return scope, ok && scope.Valid()
}

// Middleware resolves the company header into a Scope and rejects
// requests without one. Authentication of the caller is owned by the
// surrounding platform; this layer only establishes which tenant the
// request operates on.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderCompanyID)
		if raw == "" {
			http.Error(w, "company header required", http.StatusBadRequest)
			return
		}
		companyID, err := uuid.Parse(raw)
		if err != nil || companyID == uuid.Nil {
			http.Error(w, "invalid company header", http.StatusBadRequest)
			return
		}
		ctx := ContextWithScope(r.Context(), Scope{CompanyID: companyID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
