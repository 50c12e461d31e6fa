package billing

import "time"

// CanTransitionTo reports whether the lifecycle permits moving from s to
// target. Paid is terminal and nothing returns to pending.
func (s FeeStatus) CanTransitionTo(target FeeStatus) bool {
	switch s {
	case FeeStatusPending:
		return target == FeeStatusOverdue || target == FeeStatusPaid
	case FeeStatusOverdue:
		return target == FeeStatusPaid
	default:
		return false
	}
}

// IsDue reports whether a pending fee's due date has passed relative to the
// given reference date. Both sides are compared as pure calendar dates; the
// due date itself is not yet overdue.
func (f *Fee) IsDue(today time.Time) bool {
	if f.Status != FeeStatusPending {
		return false
	}
	return calendarDate(f.DueDate).Before(calendarDate(today))
}

// calendarDate strips the time-of-day component, keeping the location so a
// sweep and the fees it inspects share one calendar reference.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
