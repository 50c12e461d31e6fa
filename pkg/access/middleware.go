package access

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Identity carries the authenticated caller's tenant and user, established
// by the authentication layer upstream of this core.
type Identity struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
}

type contextKey string

const identityKey contextKey = "access_identity"

// WithIdentity attaches an identity to the context
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the identity, if any
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// ExtractIdentity reads the tenant and user headers the auth gateway sets
// and attaches them to the request context. Requests without both headers
// pass through unauthenticated; the capability middleware rejects them.
func ExtractIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, tErr := uuid.Parse(r.Header.Get("X-Tenant-ID"))
		userID, uErr := uuid.Parse(r.Header.Get("X-User-ID"))
		if tErr == nil && uErr == nil {
			r = r.WithContext(WithIdentity(r.Context(), Identity{TenantID: tenantID, UserID: userID}))
		}
		next.ServeHTTP(w, r)
	})
}

// Middleware guards routes with capability checks. Every check goes through
// CanView/CanManage so the owner bypass is applied in exactly one place.
type Middleware struct {
	checker *Checker
}

// NewMiddleware creates new capability middleware
func NewMiddleware(checker *Checker) *Middleware {
	return &Middleware{checker: checker}
}

// RequireView creates middleware that requires view access to a resource
func (m *Middleware) RequireView(resource Resource) func(http.Handler) http.Handler {
	return m.require(resource, func(a Access, r Resource) bool { return a.CanView(r) })
}

// RequireManage creates middleware that requires manage access to a resource
func (m *Middleware) RequireManage(resource Resource) func(http.Handler) http.Handler {
	return m.require(resource, func(a Access, r Resource) bool { return a.CanManage(r) })
}

func (m *Middleware) recordDecision(decision string) {
	if m.checker.metrics != nil {
		m.checker.metrics.PermissionChecksTotal.WithLabelValues(decision).Inc()
	}
}

func (m *Middleware) require(resource Resource, allowed func(Access, Resource) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			access, err := m.checker.ResolveUser(r.Context(), identity.TenantID, identity.UserID)
			if err == ErrMembershipNotFound {
				m.recordDecision("denied")
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}
			if err != nil {
				http.Error(w, "Permission check failed", http.StatusInternalServerError)
				return
			}

			if !allowed(access, resource) {
				m.recordDecision("denied")
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			m.recordDecision("allowed")

			next.ServeHTTP(w, r)
		})
	}
}
