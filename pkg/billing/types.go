package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeStatus represents the lifecycle status of a fee
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPaid    FeeStatus = "paid"
	FeeStatusOverdue FeeStatus = "overdue"
)

// Valid reports whether the status is one of the known lifecycle states
func (s FeeStatus) Valid() bool {
	switch s {
	case FeeStatusPending, FeeStatusPaid, FeeStatusOverdue:
		return true
	}
	return false
}

// PlanTier represents a fixed billing plan tier
type PlanTier string

const (
	PlanMonthly    PlanTier = "monthly"
	PlanQuarterly  PlanTier = "quarterly"
	PlanSemiannual PlanTier = "semiannual"
	PlanAnnual     PlanTier = "annual"
)

// InstallmentCount returns the number of installments generated for the tier.
// An unrecognized tier produces a single installment rather than an error.
func (p PlanTier) InstallmentCount() int {
	switch p {
	case PlanMonthly:
		return 1
	case PlanQuarterly:
		return 3
	case PlanSemiannual:
		return 6
	case PlanAnnual:
		return 12
	default:
		return 1
	}
}

// PaymentMethod represents how a fee was settled
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodOther    PaymentMethod = "other"
)

// Enrollment is the read-only input to schedule generation. It is owned by
// the enrollment subsystem; this package never mutates it.
type Enrollment struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	AthleteID     uuid.UUID       `json:"athlete_id"`
	Plan          PlanTier        `json:"plan"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	StartDate     time.Time       `json:"start_date"`
	PaymentDay    int             `json:"payment_day"`
}

// Validate checks the enrollment fields required for schedule generation
func (e *Enrollment) Validate() error {
	if e.ID == uuid.Nil {
		return &ValidationError{Field: "id", Reason: "enrollment id is required"}
	}
	if e.TenantID == uuid.Nil {
		return &ValidationError{Field: "tenant_id", Reason: "tenant id is required"}
	}
	if e.AthleteID == uuid.Nil {
		return &ValidationError{Field: "athlete_id", Reason: "athlete id is required"}
	}
	if e.MonthlyAmount.IsNegative() {
		return &ValidationError{Field: "monthly_amount", Reason: "amount must not be negative"}
	}
	if e.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "start date is required"}
	}
	if e.PaymentDay < 1 || e.PaymentDay > 31 {
		return &ValidationError{Field: "payment_day", Reason: "payment day must be between 1 and 31"}
	}
	return nil
}

// Fee represents a single billable installment or manual charge. A fee
// belongs to exactly one tenant and one athlete for its whole lifetime.
type Fee struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	AthleteID         uuid.UUID       `json:"athlete_id"`
	EnrollmentID      *uuid.UUID      `json:"enrollment_id,omitempty"`
	InstallmentNumber *int            `json:"installment_number,omitempty"` // 1-based within the enrollment schedule
	DueDate           time.Time       `json:"due_date"`
	Amount            decimal.Decimal `json:"amount"`
	Status            FeeStatus       `json:"status"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	PaymentMethod     PaymentMethod   `json:"payment_method,omitempty"`
	Description       string          `json:"description,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Validate checks the fee fields required before persistence
func (f *Fee) Validate() error {
	if f.TenantID == uuid.Nil {
		return &ValidationError{Field: "tenant_id", Reason: "tenant id is required"}
	}
	if f.AthleteID == uuid.Nil {
		return &ValidationError{Field: "athlete_id", Reason: "athlete id is required"}
	}
	if f.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "amount must not be negative"}
	}
	if f.DueDate.IsZero() {
		return &ValidationError{Field: "due_date", Reason: "due date is required"}
	}
	if !f.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown fee status"}
	}
	if (f.Status == FeeStatusPaid) != (f.PaidAt != nil) {
		return &ValidationError{Field: "paid_at", Reason: "paid timestamp must be set exactly when status is paid"}
	}
	return nil
}

// FeeFilter narrows fee queries. Zero fields are ignored.
type FeeFilter struct {
	Status       FeeStatus
	AthleteID    *uuid.UUID
	EnrollmentID *uuid.UUID
	DueBefore    *time.Time
	DueAfter     *time.Time
}

// Summary aggregates a fee collection into reporting totals
type Summary struct {
	TotalExpected decimal.Decimal `json:"total_expected"`
	TotalReceived decimal.Decimal `json:"total_received"`
	TotalPending  decimal.Decimal `json:"total_pending"`
	TotalOverdue  decimal.Decimal `json:"total_overdue"`
	PendingCount  int             `json:"pending_count"`
	OverdueCount  int             `json:"overdue_count"`
}
