package billing

// Summarize aggregates a fee collection into reporting totals. It makes no
// external calls and tolerates an empty collection, returning zero totals.
// All sums use decimal arithmetic; float accumulation is not acceptable for
// monetary totals.
func Summarize(fees []*Fee) Summary {
	var s Summary
	for _, fee := range fees {
		s.TotalExpected = s.TotalExpected.Add(fee.Amount)
		switch fee.Status {
		case FeeStatusPaid:
			s.TotalReceived = s.TotalReceived.Add(fee.Amount)
		case FeeStatusPending:
			s.TotalPending = s.TotalPending.Add(fee.Amount)
			s.PendingCount++
		case FeeStatusOverdue:
			s.TotalOverdue = s.TotalOverdue.Add(fee.Amount)
			s.OverdueCount++
		}
	}
	return s
}
