// Package core holds the domain model for savings goals and transactions.
//
// This file implements the contribution schedule calculator. Each frequency
// maps a reference time to the next occurrence; the computation is pure and
// deterministic so the engine can call it repeatedly with the same input.
package core

import "time"

// NextContributionDate returns the next scheduled contribution time after
// from. Monthly stepping follows calendar rules via time.AddDate, so the
// day of month is preserved where valid and normalized otherwise (e.g.
// Jan 31 + 1 month lands in early March). An unknown frequency is treated
// as monthly, matching the storage default for legacy rows.
func NextContributionDate(frequency Frequency, from time.Time) time.Time {
	switch frequency {
	case Daily:
		return from.AddDate(0, 0, 1)
	case Weekly:
		return from.AddDate(0, 0, 7)
	case Monthly:
		return from.AddDate(0, 1, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// ContributionDue reports whether an auto-contribution should be applied at
// now. A goal that has never been scheduled (zero next date) is due
// immediately, matching the behavior of a freshly enabled configuration.
func ContributionDue(next time.Time, now time.Time) bool {
	return next.IsZero() || !next.After(now)
}
