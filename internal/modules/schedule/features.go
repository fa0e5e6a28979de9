package schedule

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/structura/internal/modules/calendar"
)

// Inputs is everything a regeneration reads.
type Inputs struct {
	Dates       ProductDates
	Config      Config
	Features    Features
	Underlyings int
}

// Dates produces the observation dates for the inputs' layout.
func (b *Builder) Dates(in Inputs) []calendar.Date {
	switch in.Features.Layout {
	case LayoutNone:
		return []calendar.Date{}
	case LayoutPerUnderlying:
		return b.EvenlySpacedDates(in.Dates.TradeDate, in.Dates.FinalObservationDate, in.Underlyings)
	default:
		return b.ObservationDates(in.Dates.TradeDate, in.Dates.FinalObservationDate, in.Config.Normalize().Frequency)
	}
}

// Build generates a full schedule. Rebates of previous at the same position are
// carried over when the payoff uses rebates.
func (b *Builder) Build(in Inputs, previous []ObservationPeriod) []ObservationPeriod {
	return b.Periods(b.Dates(in), in.Dates.DelayDays(), in.Config, in.Features, previous)
}

// Periods decorates observation dates with value dates and per-period features.
//
// With c cool-off periods (clamped to the schedule length) the period at
// position i is callable when i >= c, and its autocall level is
// initialAutocallLevel + stepDown*(i-c), so the ladder starts at the first
// callable period rather than period zero.
func (b *Builder) Periods(dates []calendar.Date, delayDays int, cfg Config, features Features, previous []ObservationPeriod) []ObservationPeriod {
	cfg = cfg.Normalize()
	coolOff := clampCoolOff(cfg.CoolOffPeriods, len(dates))

	periods := make([]ObservationPeriod, len(dates))
	for i, date := range dates {
		periods[i] = ObservationPeriod{
			ID:              i + 1,
			PeriodIndex:     i + 1,
			ObservationDate: date,
			ValueDate:       b.ValueDate(date, delayDays),
			CouponBarrier:   cfg.InitialCouponBarrier,
		}
		applyCallability(&periods[i], i, coolOff, cfg)
		periods[i].RebateAmount = rebateFor(i, features, previous)
	}
	return periods
}

// AutocallLevel returns the stepped autocall level of the k-th callable period (k from 0).
// Decimal arithmetic keeps long ladders free of float drift (100 - 0.1*3 is 99.7, not 99.69999).
func AutocallLevel(initial, stepDown float64, k int) float64 {
	level := decimal.NewFromFloat(initial).
		Add(decimal.NewFromFloat(stepDown).Mul(decimal.NewFromInt(int64(k))))
	return ClampLevel(level.InexactFloat64())
}

func applyCallability(p *ObservationPeriod, position, coolOff int, cfg Config) {
	p.IsCallable = position >= coolOff
	if !p.IsCallable {
		p.AutocallLevel = nil
		return
	}
	p.AutocallLevel = floatPtr(AutocallLevel(cfg.InitialAutocallLevel, cfg.StepDownValue, position-coolOff))
}

func rebateFor(position int, features Features, previous []ObservationPeriod) *float64 {
	if !features.Rebates {
		return nil
	}
	if position < len(previous) && previous[position].RebateAmount != nil {
		return floatPtr(*previous[position].RebateAmount)
	}
	return floatPtr(0)
}

func clampCoolOff(coolOff, length int) int {
	if coolOff < 0 {
		return 0
	}
	if coolOff > length {
		return length
	}
	return coolOff
}
