// Package billing implements the fee lifecycle for club enrollments.
//
// # Overview
//
// Every enrollment carries a plan tier that determines how many monthly
// installments a billing cycle produces:
//
//	PlanMonthly     - 1 installment
//	PlanQuarterly   - 3 installments
//	PlanSemiannual  - 6 installments
//	PlanAnnual      - 12 installments
//
// BuildSchedule projects the installments forward from the enrollment start
// date, one per calendar month, due on the enrollment's payment day. When a
// month is shorter than the payment day the due date is clamped to the last
// day of that month; the clamp is computed per installment from the original
// payment day, so a February clamp does not shift the following months.
//
// # Fee Lifecycle
//
// A fee is in exactly one of three states:
//
//	pending - awaiting payment, the initial state
//	paid    - settled; terminal, a paid fee never changes status again
//	overdue - pending past its due date
//
// Transitions happen through two operations. MarkFeePaid settles a pending
// or overdue fee and stamps its payment timestamp in the same write, so a
// paid fee always has a timestamp and an unpaid fee never does. SweepDue
// bulk-advances every pending fee whose due date has passed to overdue;
// the comparison uses calendar dates, never hours, and the reference date
// is an explicit argument so runs are deterministic and repeatable.
//
// # Summaries
//
// Summarize aggregates a set of fees into per-status totals and counts.
// Amounts are decimals end to end; totals are exact sums, not float
// approximations.
//
// All operations are tenant scoped. The tenant id is an explicit argument
// on every Service call and every SQL statement filters on it.
package billing
