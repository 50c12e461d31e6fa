package access

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAccessRouter(store Store) http.Handler {
	checker := NewChecker(store, nil, nil)
	router := mux.NewRouter()
	NewHandlers(checker).RegisterRoutes(router, NewMiddleware(checker))
	return ExtractIdentity(router)
}

func doRequest(t *testing.T, handler http.Handler, method, path string, identity *Identity, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if identity != nil {
		req.Header.Set("X-Tenant-ID", identity.TenantID.String())
		req.Header.Set("X-User-ID", identity.UserID.String())
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGetMemberAccess(t *testing.T) {
	tenantID := uuid.New()
	memberID := uuid.New()
	adminID := uuid.New()

	store := newFakeStore()
	store.add(&Membership{TenantID: tenantID, UserID: memberID, Role: RoleMember})
	store.add(&Membership{TenantID: tenantID, UserID: adminID, Role: RoleAdmin})
	handler := setupAccessRouter(store)

	accessPath := func(userID uuid.UUID) string {
		return "/tenants/" + tenantID.String() + "/members/" + userID.String() + "/access"
	}

	t.Run("member reads own access", func(t *testing.T) {
		rec := doRequest(t, handler, "GET", accessPath(memberID),
			&Identity{TenantID: tenantID, UserID: memberID}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			IsOwner     bool          `json:"is_owner"`
			Permissions PermissionSet `json:"permissions"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.IsOwner)
		assert.True(t, resp.Permissions.ViewMonthlyFees)
		assert.False(t, resp.Permissions.ManageMonthlyFees)
	})

	t.Run("member cannot read another member", func(t *testing.T) {
		rec := doRequest(t, handler, "GET", accessPath(adminID),
			&Identity{TenantID: tenantID, UserID: memberID}, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin reads any member", func(t *testing.T) {
		rec := doRequest(t, handler, "GET", accessPath(memberID),
			&Identity{TenantID: tenantID, UserID: adminID}, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("404 for unknown member", func(t *testing.T) {
		rec := doRequest(t, handler, "GET", accessPath(uuid.New()),
			&Identity{TenantID: tenantID, UserID: adminID}, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("401 without identity", func(t *testing.T) {
		rec := doRequest(t, handler, "GET", accessPath(memberID), nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("401 for foreign tenant identity", func(t *testing.T) {
		rec := doRequest(t, handler, "GET", accessPath(memberID),
			&Identity{TenantID: uuid.New(), UserID: memberID}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSetMemberRole(t *testing.T) {
	tenantID := uuid.New()
	memberID := uuid.New()
	adminID := uuid.New()

	rolePath := func(userID uuid.UUID) string {
		return "/tenants/" + tenantID.String() + "/members/" + userID.String() + "/role"
	}

	t.Run("admin promotes a member", func(t *testing.T) {
		store := newFakeStore()
		store.add(&Membership{TenantID: tenantID, UserID: memberID, Role: RoleMember})
		store.add(&Membership{TenantID: tenantID, UserID: adminID, Role: RoleAdmin})
		handler := setupAccessRouter(store)

		rec := doRequest(t, handler, "PUT", rolePath(memberID),
			&Identity{TenantID: tenantID, UserID: adminID},
			map[string]interface{}{"role": "manager"})
		require.Equal(t, http.StatusNoContent, rec.Code)

		m := store.memberships[store.key(tenantID, memberID)]
		require.NotNil(t, m)
		assert.Equal(t, RoleManager, m.Role)
	})

	t.Run("member cannot change roles", func(t *testing.T) {
		store := newFakeStore()
		store.add(&Membership{TenantID: tenantID, UserID: memberID, Role: RoleMember})
		handler := setupAccessRouter(store)

		rec := doRequest(t, handler, "PUT", rolePath(memberID),
			&Identity{TenantID: tenantID, UserID: memberID},
			map[string]interface{}{"role": "admin"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		store := newFakeStore()
		store.add(&Membership{TenantID: tenantID, UserID: adminID, Role: RoleAdmin})
		handler := setupAccessRouter(store)

		rec := doRequest(t, handler, "PUT", rolePath(memberID),
			&Identity{TenantID: tenantID, UserID: adminID},
			map[string]interface{}{"role": "owner"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("role with override", func(t *testing.T) {
		store := newFakeStore()
		store.add(&Membership{TenantID: tenantID, UserID: adminID, Role: RoleAdmin})
		handler := setupAccessRouter(store)

		rec := doRequest(t, handler, "PUT", rolePath(memberID),
			&Identity{TenantID: tenantID, UserID: adminID},
			map[string]interface{}{
				"role": "member",
				"permission_override": map[string]bool{
					"view_monthly_fees":   true,
					"manage_monthly_fees": true,
				},
			})
		require.Equal(t, http.StatusNoContent, rec.Code)

		m := store.memberships[store.key(tenantID, memberID)]
		require.NotNil(t, m)
		require.NotNil(t, m.Override)
		assert.True(t, m.Override.ManageMonthlyFees)
		assert.False(t, m.Override.ViewDashboard)
	})
}
