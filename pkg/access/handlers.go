package access

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Handlers provides HTTP handlers for membership access operations
type Handlers struct {
	checker *Checker
}

// NewHandlers creates new access handlers
func NewHandlers(checker *Checker) *Handlers {
	return &Handlers{checker: checker}
}

// RegisterRoutes registers all access routes
func (h *Handlers) RegisterRoutes(router *mux.Router, mw *Middleware) {
	router.HandleFunc("/tenants/{tenant_id}/members/{user_id}/access", h.GetMemberAccess).Methods("GET")
	router.Handle("/tenants/{tenant_id}/members/{user_id}/role",
		mw.RequireManage(ResourceUsers)(http.HandlerFunc(h.SetMemberRole))).Methods("PUT")
}

// memberAccessResponse is the wire form of a resolved access entry
type memberAccessResponse struct {
	TenantID    uuid.UUID     `json:"tenant_id"`
	UserID      uuid.UUID     `json:"user_id"`
	IsOwner     bool          `json:"is_owner"`
	Permissions PermissionSet `json:"permissions"`
}

// GetMemberAccess returns a member's resolved capability set. Members may
// read their own access; reading anyone else's requires manage_users.
func (h *Handlers) GetMemberAccess(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	identity, ok := IdentityFromContext(r.Context())
	if !ok || identity.TenantID != tenantID {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if identity.UserID != userID {
		caller, err := h.checker.ResolveUser(r.Context(), identity.TenantID, identity.UserID)
		if err != nil || !caller.CanManage(ResourceUsers) {
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
			return
		}
	}

	access, err := h.checker.ResolveUser(r.Context(), tenantID, userID)
	if errors.Is(err, ErrMembershipNotFound) {
		http.Error(w, "Membership not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to resolve access", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, memberAccessResponse{
		TenantID:    tenantID,
		UserID:      userID,
		IsOwner:     access.IsOwner,
		Permissions: access.Permissions(),
	})
}

// setRoleRequest is the body for role updates
type setRoleRequest struct {
	Role     Role           `json:"role"`
	Override *PermissionSet `json:"permission_override,omitempty"`
}

// SetMemberRole updates a member's role and optional permission override
func (h *Handlers) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.checker.SetRole(r.Context(), tenantID, userID, req.Role, req.Override)
	if errors.Is(err, ErrInvalidRole) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Failed to update role", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathIDs parses the tenant and user ids from the route
func pathIDs(w http.ResponseWriter, r *http.Request) (tenantID, userID uuid.UUID, ok bool) {
	vars := mux.Vars(r)
	tenantID, err := uuid.Parse(vars["tenant_id"])
	if err != nil {
		http.Error(w, "Invalid tenant id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	userID, err = uuid.Parse(vars["user_id"])
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, userID, true
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
