// Package projection implements the recurrence and billing projection
// engine: expanding recurring transactions into calendar occurrences,
// mapping installment purchases onto credit-card billing cycles, mapping
// loan schedules onto months, and aggregating the three into per-month
// summaries. Every function here is pure; "today" is always an explicit
// argument, never read from the clock.
package projection

import (
	"fmt"

	"bilancio/internal/core"
)

// maxOccurrences bounds a single expansion. A window can in principle span
// centuries; the cap keeps a pathological request from looping. It is a
// safety bound, not a business rule.
const maxOccurrences = 200

// Occurrences expands a transaction into the concrete dates on which it
// falls inside [start, end], inclusive of both bounds, sorted ascending,
// without duplicates. A non-recurring transaction yields its own date or
// nothing. Monthly and annual steps preserve the anchor's day of the month,
// clamped to each target month's length.
func Occurrences(tx core.Transaction, start, end core.Date) ([]core.Date, error) {
	if err := tx.Date.Validate(); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("occurrence window: %w", core.ErrInvalidDate)
	}
	if end.Before(start) {
		return nil, nil
	}

	switch tx.Recurrence {
	case core.FrequencyNone:
		if inWindow(tx.Date, start, end) {
			return []core.Date{tx.Date}, nil
		}
		return nil, nil
	case core.FrequencyWeekly:
		return weeklyOccurrences(tx.Date, start, end), nil
	case core.FrequencyMonthly:
		return monthlyOccurrences(tx.Date, start, end), nil
	case core.FrequencyAnnually:
		return annualOccurrences(tx.Date, start, end), nil
	default:
		return nil, fmt.Errorf("transaction %s: %w: %q", tx.ID, core.ErrInvalidFrequency, tx.Recurrence)
	}
}

func inWindow(d, start, end core.Date) bool {
	return !d.Before(start) && !d.After(end)
}

func weeklyOccurrences(anchor, start, end core.Date) []core.Date {
	d := anchor
	// Fast-forward in whole weeks to the last step at or before the window.
	if d.Before(start) {
		days := int(start.Sub(d.Time).Hours() / 24)
		d = d.AddDays(days / 7 * 7)
	}
	var out []core.Date
	for ; !d.After(end) && len(out) < maxOccurrences; d = d.AddDays(7) {
		if !d.Before(start) {
			out = append(out, d)
		}
	}
	return out
}

// monthlyOccurrences steps from the anchor one calendar month at a time.
// Each step is computed as anchor+i months rather than by advancing the
// previous occurrence, so a day-31 anchor clamped to Feb 28 returns to the
// 31st in March instead of staying shifted.
func monthlyOccurrences(anchor, start, end core.Date) []core.Date {
	i := 0
	if anchor.Before(start) {
		if i = core.MonthsBetween(anchor, start); i < 0 {
			i = 0
		}
		// The clamped day in the start month may still precede the window.
		if anchor.AddMonths(i).Before(start) {
			i++
		}
	}
	var out []core.Date
	for ; len(out) < maxOccurrences; i++ {
		d := anchor.AddMonths(i)
		if d.After(end) {
			break
		}
		if !d.Before(start) {
			out = append(out, d)
		}
	}
	return out
}

func annualOccurrences(anchor, start, end core.Date) []core.Date {
	i := 0
	if anchor.Before(start) {
		if i = start.Year() - anchor.Year(); i < 0 {
			i = 0
		}
		if anchor.AddYears(i).Before(start) {
			i++
		}
	}
	var out []core.Date
	for ; len(out) < maxOccurrences; i++ {
		d := anchor.AddYears(i)
		if d.After(end) {
			break
		}
		if !d.Before(start) {
			out = append(out, d)
		}
	}
	return out
}
