package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BuildSchedule produces the ordered installment schedule for an enrollment.
// It is a pure function: nothing is persisted and the enrollment is not
// modified. The result has exactly InstallmentCount fees, each one month
// apart, all pending, each carrying the enrollment's monthly amount.
func BuildSchedule(e Enrollment) ([]*Fee, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	count := e.Plan.InstallmentCount()
	fees := make([]*Fee, 0, count)
	for i := 0; i < count; i++ {
		due := installmentDueDate(e.StartDate, e.PaymentDay, i)
		number := i + 1
		enrollmentID := e.ID
		fees = append(fees, &Fee{
			ID:                uuid.New(),
			TenantID:          e.TenantID,
			AthleteID:         e.AthleteID,
			EnrollmentID:      &enrollmentID,
			InstallmentNumber: &number,
			DueDate:           due,
			Amount:            e.MonthlyAmount,
			Status:            FeeStatusPending,
			Description:       fmt.Sprintf("%d/%d - %s %d", number, count, due.Month().String(), due.Year()),
		})
	}

	return fees, nil
}

// installmentDueDate computes the due date for the installment at the given
// month offset. The day of month is clamped to the target month's length
// independently for every installment, so a payment day of 31 lands on the
// last day of short months without drifting later installments.
func installmentDueDate(start time.Time, paymentDay, monthOffset int) time.Time {
	months := int(start.Month()) - 1 + monthOffset
	year := start.Year() + months/12
	month := time.Month(months%12 + 1)

	day := paymentDay
	if last := daysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, 0, 0, 0, 0, start.Location())
}

// daysInMonth returns the number of days in the given month. Day 0 of the
// following month normalizes to the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
