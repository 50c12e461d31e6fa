package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnrollment(plan PlanTier, start time.Time, paymentDay int) Enrollment {
	return Enrollment{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		AthleteID:     uuid.New(),
		Plan:          plan,
		MonthlyAmount: decimal.NewFromFloat(49.90),
		StartDate:     start,
		PaymentDay:    paymentDay,
	}
}

func TestBuildScheduleInstallmentCounts(t *testing.T) {
	start := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		plan  PlanTier
		count int
	}{
		{PlanMonthly, 1},
		{PlanQuarterly, 3},
		{PlanSemiannual, 6},
		{PlanAnnual, 12},
		{PlanTier("lifetime"), 1},
		{PlanTier(""), 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			fees, err := BuildSchedule(testEnrollment(tt.plan, start, 10))
			require.NoError(t, err)
			assert.Len(t, fees, tt.count)
		})
	}
}

func TestBuildScheduleFields(t *testing.T) {
	start := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	enrollment := testEnrollment(PlanQuarterly, start, 10)

	fees, err := BuildSchedule(enrollment)
	require.NoError(t, err)
	require.Len(t, fees, 3)

	for i, fee := range fees {
		assert.NotEqual(t, uuid.Nil, fee.ID)
		assert.Equal(t, enrollment.TenantID, fee.TenantID)
		assert.Equal(t, enrollment.AthleteID, fee.AthleteID)
		require.NotNil(t, fee.EnrollmentID)
		assert.Equal(t, enrollment.ID, *fee.EnrollmentID)
		require.NotNil(t, fee.InstallmentNumber)
		assert.Equal(t, i+1, *fee.InstallmentNumber)
		assert.Equal(t, FeeStatusPending, fee.Status)
		assert.Nil(t, fee.PaidAt)
		assert.True(t, fee.Amount.Equal(enrollment.MonthlyAmount))
	}

	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), fees[0].DueDate)
	assert.Equal(t, time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC), fees[1].DueDate)
	assert.Equal(t, time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC), fees[2].DueDate)
}

func TestBuildScheduleClampsShortMonths(t *testing.T) {
	// Payment day 31 starting in January of a leap year. February clamps to
	// the 29th, and March returns to the 31st instead of inheriting the clamp.
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	fees, err := BuildSchedule(testEnrollment(PlanQuarterly, start, 31))
	require.NoError(t, err)
	require.Len(t, fees, 3)

	assert.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), fees[0].DueDate)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), fees[1].DueDate)
	assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC), fees[2].DueDate)
}

func TestBuildScheduleClampsNonLeapFebruary(t *testing.T) {
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	fees, err := BuildSchedule(testEnrollment(PlanQuarterly, start, 30))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC), fees[1].DueDate)
	assert.Equal(t, time.Date(2023, time.March, 30, 0, 0, 0, 0, time.UTC), fees[2].DueDate)
}

func TestBuildScheduleYearRollover(t *testing.T) {
	start := time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC)
	fees, err := BuildSchedule(testEnrollment(PlanSemiannual, start, 15))
	require.NoError(t, err)
	require.Len(t, fees, 6)

	assert.Equal(t, time.Date(2024, time.November, 15, 0, 0, 0, 0, time.UTC), fees[0].DueDate)
	assert.Equal(t, time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC), fees[1].DueDate)
	assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), fees[2].DueDate)
	assert.Equal(t, time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC), fees[5].DueDate)
}

func TestBuildScheduleDescriptions(t *testing.T) {
	start := time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC)
	fees, err := BuildSchedule(testEnrollment(PlanQuarterly, start, 30))
	require.NoError(t, err)

	assert.Equal(t, "1/3 - November 2024", fees[0].Description)
	assert.Equal(t, "2/3 - December 2024", fees[1].Description)
	assert.Equal(t, "3/3 - January 2025", fees[2].Description)
}

func TestBuildScheduleValidation(t *testing.T) {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*Enrollment)
		field  string
	}{
		{"missing enrollment id", func(e *Enrollment) { e.ID = uuid.Nil }, "id"},
		{"missing tenant id", func(e *Enrollment) { e.TenantID = uuid.Nil }, "tenant_id"},
		{"missing athlete id", func(e *Enrollment) { e.AthleteID = uuid.Nil }, "athlete_id"},
		{"negative amount", func(e *Enrollment) { e.MonthlyAmount = decimal.NewFromInt(-1) }, "monthly_amount"},
		{"zero start date", func(e *Enrollment) { e.StartDate = time.Time{} }, "start_date"},
		{"payment day too low", func(e *Enrollment) { e.PaymentDay = 0 }, "payment_day"},
		{"payment day too high", func(e *Enrollment) { e.PaymentDay = 32 }, "payment_day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enrollment := testEnrollment(PlanMonthly, start, 10)
			tt.mutate(&enrollment)

			fees, err := BuildSchedule(enrollment)
			assert.Nil(t, fees)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestBuildScheduleZeroAmountAllowed(t *testing.T) {
	enrollment := testEnrollment(PlanMonthly, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 10)
	enrollment.MonthlyAmount = decimal.Zero

	fees, err := BuildSchedule(enrollment)
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.True(t, fees[0].Amount.IsZero())
}

func TestBuildScheduleAnnualDayOne(t *testing.T) {
	// Payment day 1 never clamps; twelve consecutive months, one per month.
	start := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)
	fees, err := BuildSchedule(testEnrollment(PlanAnnual, start, 1))
	require.NoError(t, err)
	require.Len(t, fees, 12)

	for i, fee := range fees {
		expected := time.Date(2024, time.February+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, expected, fee.DueDate, fmt.Sprintf("installment %d", i+1))
	}
}
