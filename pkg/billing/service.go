package billing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/christianpasc/auraclubmanager/pkg/observability"
)

// Service defines the billing lifecycle operations. Tenant identity is an
// explicit argument on every call; the service never infers tenant scope.
type Service interface {
	// Schedule generation
	GenerateSchedule(ctx context.Context, enrollment Enrollment) ([]*Fee, error)

	// Fee lifecycle
	MarkFeePaid(ctx context.Context, tenantID, feeID uuid.UUID, method PaymentMethod, paidAt time.Time) (*Fee, error)
	SweepDue(ctx context.Context, tenantID uuid.UUID, today time.Time) (int64, error)

	// Fee records
	CreateFee(ctx context.Context, fee *Fee) error
	GetFee(ctx context.Context, tenantID, feeID uuid.UUID) (*Fee, error)
	ListFees(ctx context.Context, tenantID uuid.UUID, filter FeeFilter) ([]*Fee, error)
	DeleteFee(ctx context.Context, tenantID, feeID uuid.UUID) error

	// Reporting
	SummarizeFees(ctx context.Context, tenantID uuid.UUID, filter FeeFilter) (Summary, error)

	// ListTenantIDs returns every tenant with at least one fee on record.
	// Used by the scheduled sweep, which runs per tenant.
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// PostgresService implements Service using PostgreSQL
type PostgresService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewPostgresService creates a new PostgresService
func NewPostgresService(db *sql.DB, logger *observability.Logger) *PostgresService {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &PostgresService{db: db, logger: logger}
}

const feeColumns = `id, tenant_id, athlete_id, enrollment_id, installment_number, due_date,
	       amount, status, paid_at, payment_method, description, notes, created_at, updated_at`

// GenerateSchedule builds the installment schedule for an enrollment and
// persists it as a single atomic batch: either every installment is written
// or none is. The enrollment record itself is never touched; on failure the
// caller may retry or leave it to a repair job.
func (s *PostgresService) GenerateSchedule(ctx context.Context, enrollment Enrollment) ([]*Fee, error) {
	fees, err := BuildSchedule(enrollment)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &PersistenceError{Op: "begin schedule transaction", Err: err}
	}
	defer tx.Rollback()

	query := `
		INSERT INTO fees (id, tenant_id, athlete_id, enrollment_id, installment_number,
		                  due_date, amount, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	for _, fee := range fees {
		err := tx.QueryRowContext(ctx, query,
			fee.ID, fee.TenantID, fee.AthleteID, fee.EnrollmentID, fee.InstallmentNumber,
			fee.DueDate, fee.Amount, fee.Status, fee.Description,
		).Scan(&fee.CreatedAt, &fee.UpdatedAt)
		if err != nil {
			return nil, &PersistenceError{Op: "insert installment", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &PersistenceError{Op: "commit schedule", Err: err}
	}

	s.logger.WithFields(map[string]interface{}{
		"tenant_id":     enrollment.TenantID.String(),
		"enrollment_id": enrollment.ID.String(),
		"installments":  len(fees),
	}).Info("generated fee schedule")

	return fees, nil
}

// MarkFeePaid transitions a pending or overdue fee to paid, stamping the
// paid timestamp and optional payment method in a single update. Paid is
// terminal: a repeated call observes the paid row and returns it unchanged.
func (s *PostgresService) MarkFeePaid(ctx context.Context, tenantID, feeID uuid.UUID, method PaymentMethod, paidAt time.Time) (*Fee, error) {
	if tenantID == uuid.Nil {
		return nil, &ValidationError{Field: "tenant_id", Reason: "tenant id is required"}
	}
	if paidAt.IsZero() {
		return nil, &ValidationError{Field: "paid_at", Reason: "paid timestamp is required"}
	}

	var methodVal sql.NullString
	if method != "" {
		methodVal = sql.NullString{String: string(method), Valid: true}
	}

	query := `
		UPDATE fees
		SET status = $1, paid_at = $2, payment_method = $3, updated_at = NOW()
		WHERE id = $4 AND tenant_id = $5 AND status <> $1
		RETURNING ` + feeColumns
	fee, err := scanFee(s.db.QueryRowContext(ctx, query, FeeStatusPaid, paidAt, methodVal, feeID, tenantID))
	if err == sql.ErrNoRows {
		// Either the fee does not exist or it is already paid.
		existing, getErr := s.GetFee(ctx, tenantID, feeID)
		if getErr != nil {
			return nil, getErr
		}
		return existing, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "mark fee paid", Err: err}
	}

	return fee, nil
}

// SweepDue advances every pending fee whose due date has passed to overdue
// in one bulk update. The reference date is an explicit parameter so the
// operation is deterministic; re-running it never alters paid or overdue
// fees. Returns the number of fees transitioned.
func (s *PostgresService) SweepDue(ctx context.Context, tenantID uuid.UUID, today time.Time) (int64, error) {
	if tenantID == uuid.Nil {
		return 0, &ValidationError{Field: "tenant_id", Reason: "tenant id is required"}
	}
	if today.IsZero() {
		return 0, &ValidationError{Field: "today", Reason: "reference date is required"}
	}

	query := `
		UPDATE fees
		SET status = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND status = $3 AND due_date < $4
	`
	result, err := s.db.ExecContext(ctx, query, FeeStatusOverdue, tenantID, FeeStatusPending, calendarDate(today))
	if err != nil {
		return 0, &PersistenceError{Op: "sweep due fees", Err: err}
	}

	swept, err := result.RowsAffected()
	if err != nil {
		return 0, &PersistenceError{Op: "get swept row count", Err: err}
	}

	if swept > 0 {
		s.logger.WithFields(map[string]interface{}{
			"tenant_id": tenantID.String(),
			"swept":     swept,
		}).Info("swept pending fees to overdue")
	}

	return swept, nil
}

// CreateFee persists a single manually created fee
func (s *PostgresService) CreateFee(ctx context.Context, fee *Fee) error {
	if fee.ID == uuid.Nil {
		fee.ID = uuid.New()
	}
	if fee.Status == "" {
		fee.Status = FeeStatusPending
	}
	if err := fee.Validate(); err != nil {
		return err
	}

	var methodVal sql.NullString
	if fee.PaymentMethod != "" {
		methodVal = sql.NullString{String: string(fee.PaymentMethod), Valid: true}
	}

	query := `
		INSERT INTO fees (id, tenant_id, athlete_id, enrollment_id, installment_number,
		                  due_date, amount, status, paid_at, payment_method, description, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		fee.ID, fee.TenantID, fee.AthleteID, fee.EnrollmentID, fee.InstallmentNumber,
		fee.DueDate, fee.Amount, fee.Status, fee.PaidAt, methodVal, fee.Description, fee.Notes,
	).Scan(&fee.CreatedAt, &fee.UpdatedAt)
	if err != nil {
		return &PersistenceError{Op: "create fee", Err: err}
	}

	return nil
}

// GetFee retrieves a single fee scoped to its tenant
func (s *PostgresService) GetFee(ctx context.Context, tenantID, feeID uuid.UUID) (*Fee, error) {
	query := `SELECT ` + feeColumns + ` FROM fees WHERE id = $1 AND tenant_id = $2`
	fee, err := scanFee(s.db.QueryRowContext(ctx, query, feeID, tenantID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get fee", Err: err}
	}
	return fee, nil
}

// ListFees retrieves the tenant's fees matching the filter, ordered by due
// date and installment number
func (s *PostgresService) ListFees(ctx context.Context, tenantID uuid.UUID, filter FeeFilter) ([]*Fee, error) {
	if tenantID == uuid.Nil {
		return nil, &ValidationError{Field: "tenant_id", Reason: "tenant id is required"}
	}

	var conditions []string
	args := []interface{}{tenantID}
	conditions = append(conditions, "tenant_id = $1")

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.AthleteID != nil {
		args = append(args, *filter.AthleteID)
		conditions = append(conditions, fmt.Sprintf("athlete_id = $%d", len(args)))
	}
	if filter.EnrollmentID != nil {
		args = append(args, *filter.EnrollmentID)
		conditions = append(conditions, fmt.Sprintf("enrollment_id = $%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, calendarDate(*filter.DueBefore))
		conditions = append(conditions, fmt.Sprintf("due_date < $%d", len(args)))
	}
	if filter.DueAfter != nil {
		args = append(args, calendarDate(*filter.DueAfter))
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", len(args)))
	}

	query := `SELECT ` + feeColumns + ` FROM fees WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY due_date ASC, installment_number ASC NULLS LAST, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &PersistenceError{Op: "list fees", Err: err}
	}
	defer rows.Close()

	var fees []*Fee
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, &PersistenceError{Op: "scan fee", Err: err}
		}
		fees = append(fees, fee)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list fees", Err: err}
	}

	return fees, nil
}

// DeleteFee removes a fee after a tenant ownership check
func (s *PostgresService) DeleteFee(ctx context.Context, tenantID, feeID uuid.UUID) error {
	query := `DELETE FROM fees WHERE id = $1 AND tenant_id = $2`
	result, err := s.db.ExecContext(ctx, query, feeID, tenantID)
	if err != nil {
		return &PersistenceError{Op: "delete fee", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return &PersistenceError{Op: "get rows affected", Err: err}
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SummarizeFees aggregates the tenant's fees matching the filter
func (s *PostgresService) SummarizeFees(ctx context.Context, tenantID uuid.UUID, filter FeeFilter) (Summary, error) {
	fees, err := s.ListFees(ctx, tenantID, filter)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(fees), nil
}

// ListTenantIDs returns every tenant with at least one fee on record
func (s *PostgresService) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT tenant_id FROM fees`)
	if err != nil {
		return nil, &PersistenceError{Op: "list tenants", Err: err}
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, &PersistenceError{Op: "scan tenant id", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list tenants", Err: err}
	}

	return ids, nil
}

// scanFee scans a fee from a database row
func scanFee(scanner interface {
	Scan(dest ...interface{}) error
}) (*Fee, error) {
	var fee Fee
	var enrollmentID uuid.NullUUID
	var installmentNumber sql.NullInt64
	var paidAt sql.NullTime
	var paymentMethod sql.NullString

	err := scanner.Scan(
		&fee.ID,
		&fee.TenantID,
		&fee.AthleteID,
		&enrollmentID,
		&installmentNumber,
		&fee.DueDate,
		&fee.Amount,
		&fee.Status,
		&paidAt,
		&paymentMethod,
		&fee.Description,
		&fee.Notes,
		&fee.CreatedAt,
		&fee.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if enrollmentID.Valid {
		id := enrollmentID.UUID
		fee.EnrollmentID = &id
	}
	if installmentNumber.Valid {
		n := int(installmentNumber.Int64)
		fee.InstallmentNumber = &n
	}
	if paidAt.Valid {
		ts := paidAt.Time
		fee.PaidAt = &ts
	}
	if paymentMethod.Valid {
		fee.PaymentMethod = PaymentMethod(paymentMethod.String)
	}

	return &fee, nil
}
