package access

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Store persists tenant memberships
type Store interface {
	// GetMembership reads the membership for a tenant/user pair
	GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error)

	// SetMembershipRole upserts the role and optional permission override.
	// The owner flag is managed by tenant provisioning and is not touched
	// on update.
	SetMembershipRole(ctx context.Context, tenantID, userID uuid.UUID, role Role, override *PermissionSet) error
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetMembership reads the membership for a tenant/user pair
func (s *PostgresStore) GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error) {
	query := `
		SELECT tenant_id, user_id, role, is_owner, permission_override, created_at, updated_at
		FROM memberships
		WHERE tenant_id = $1 AND user_id = $2
	`
	m := &Membership{}
	var overrideJSON []byte
	err := s.db.QueryRowContext(ctx, query, tenantID, userID).Scan(
		&m.TenantID, &m.UserID, &m.Role, &m.IsOwner, &overrideJSON, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	if len(overrideJSON) > 0 {
		var override PermissionSet
		if err := json.Unmarshal(overrideJSON, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permission override: %w", err)
		}
		if !override.IsZero() {
			m.Override = &override
		}
	}

	return m, nil
}

// SetMembershipRole upserts the role and optional permission override for a
// tenant/user pair
func (s *PostgresStore) SetMembershipRole(ctx context.Context, tenantID, userID uuid.UUID, role Role, override *PermissionSet) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	var overrideJSON interface{}
	if override != nil && !override.IsZero() {
		data, err := json.Marshal(override)
		if err != nil {
			return fmt.Errorf("failed to marshal permission override: %w", err)
		}
		overrideJSON = data
	}

	query := `
		INSERT INTO memberships (tenant_id, user_id, role, permission_override)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, user_id) DO UPDATE
		SET role = EXCLUDED.role,
		    permission_override = EXCLUDED.permission_override,
		    updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, tenantID, userID, role, overrideJSON); err != nil {
		return fmt.Errorf("failed to set membership role: %w", err)
	}

	return nil
}
