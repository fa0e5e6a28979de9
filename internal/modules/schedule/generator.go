package schedule

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/aristath/structura/internal/modules/calendar"
)

// Layout selects how observation dates are laid out for a payoff family.
type Layout string

const (
	// LayoutPeriodic spaces observations by the configured frequency
	LayoutPeriodic Layout = "periodic"
	// LayoutPerUnderlying places one observation per underlying, evenly spaced (Himalaya)
	LayoutPerUnderlying Layout = "per_underlying"
	// LayoutNone means the payoff only uses trade and final dates
	LayoutNone Layout = "none"
)

// Features are the payoff-specific decorations the period assigner applies.
type Features struct {
	Layout  Layout `json:"layout"`
	Rebates bool   `json:"rebates"`
}

// Builder generates observation schedules against a business-day calendar.
// It holds no state of its own.
type Builder struct {
	cal calendar.Adjuster
}

// NewBuilder creates a builder that adjusts every date through cal.
func NewBuilder(cal calendar.Adjuster) *Builder {
	return &Builder{cal: cal}
}

// ObservationDates lays out periodic observations from trade to final date.
// The raw date of period i is trade + i*months (EDATE); the first raw date at or
// beyond the final date is replaced by the final date and ends the sequence.
// Every date is rolled onto a business day. A degenerate interval yields no dates.
func (b *Builder) ObservationDates(trade, final calendar.Date, freq Frequency) []calendar.Date {
	if trade.IsZero() || final.IsZero() || !trade.Before(final) {
		return []calendar.Date{}
	}

	months := freq.Months()
	dates := make([]calendar.Date, 0, trade.DaysUntil(final)/(months*28)+2)

	for i := 1; ; i++ {
		raw := trade.AddMonths(i * months)
		if raw.After(final) {
			raw = final
		}
		dates = appendAdjusted(dates, b.cal.NextBusinessDay(raw))
		if !raw.Before(final) {
			break
		}
	}
	return dates
}

// EvenlySpacedDates splits the trade-to-final interval into n equal parts and
// places one observation at the end of each, rounded to whole days and adjusted.
// The last observation always falls on the adjusted final date. Exactly n dates
// are returned; when the interval holds fewer business days than n, neighbouring
// observations share a date rather than being dropped.
func (b *Builder) EvenlySpacedDates(trade, final calendar.Date, n int) []calendar.Date {
	if n <= 0 || trade.IsZero() || final.IsZero() || !trade.Before(final) {
		return []calendar.Date{}
	}

	offsets := floats.Span(make([]float64, n+1), 0, float64(trade.DaysUntil(final)))

	dates := make([]calendar.Date, 0, n)
	for _, offset := range offsets[1:] {
		raw := trade.AddDays(int(math.Round(offset)))
		if raw.After(final) {
			raw = final
		}
		dates = append(dates, b.cal.NextBusinessDay(raw))
	}
	return dates
}

// ValueDate settles an observation delayDays calendar days later, on a business day.
func (b *Builder) ValueDate(observation calendar.Date, delayDays int) calendar.Date {
	if observation.IsZero() {
		return observation
	}
	return b.cal.NextBusinessDay(observation.AddDays(delayDays))
}

// appendAdjusted keeps the sequence strictly increasing: when adjustment lands a
// date on or before its predecessor (a short stub rolling onto the final date),
// the later date replaces the earlier one.
func appendAdjusted(dates []calendar.Date, d calendar.Date) []calendar.Date {
	if n := len(dates); n > 0 && !d.After(dates[n-1]) {
		dates[n-1] = d
		return dates
	}
	return append(dates, d)
}
