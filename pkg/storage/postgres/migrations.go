package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/christianpasc/auraclubmanager/pkg/observability"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create fees table",
			SQL: `
				CREATE TABLE IF NOT EXISTS fees (
					id UUID PRIMARY KEY,
					tenant_id UUID NOT NULL,
					athlete_id UUID NOT NULL,
					enrollment_id UUID,
					installment_number INT,
					due_date DATE NOT NULL,
					amount NUMERIC(12, 2) NOT NULL CHECK (amount >= 0),
					status VARCHAR(20) NOT NULL DEFAULT 'pending'
						CHECK (status IN ('pending', 'paid', 'overdue')),
					paid_at TIMESTAMP,
					payment_method VARCHAR(20),
					description TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					CHECK ((status = 'paid') = (paid_at IS NOT NULL)),
					UNIQUE (enrollment_id, installment_number)
				);

				CREATE INDEX idx_fees_tenant_id ON fees(tenant_id);
				CREATE INDEX idx_fees_tenant_status ON fees(tenant_id, status);
				CREATE INDEX idx_fees_tenant_due_date ON fees(tenant_id, due_date);
				CREATE INDEX idx_fees_athlete_id ON fees(athlete_id);
				CREATE INDEX idx_fees_enrollment_id ON fees(enrollment_id);
			`,
		},
		{
			Version:     2,
			Description: "Create memberships table",
			SQL: `
				CREATE TABLE IF NOT EXISTS memberships (
					tenant_id UUID NOT NULL,
					user_id UUID NOT NULL,
					role VARCHAR(20) NOT NULL DEFAULT 'member'
						CHECK (role IN ('admin', 'manager', 'member')),
					is_owner BOOLEAN NOT NULL DEFAULT FALSE,
					permission_override JSONB,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					PRIMARY KEY (tenant_id, user_id)
				);

				CREATE INDEX idx_memberships_user_id ON memberships(user_id);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB, logger *observability.Logger) error {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		logger.WithFields(map[string]interface{}{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("running migration")

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
