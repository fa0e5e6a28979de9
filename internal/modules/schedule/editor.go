package schedule

import (
	"errors"
	"sort"

	"github.com/aristath/structura/internal/modules/calendar"
)

var (
	// ErrDuplicateDate is returned when an inserted or moved observation collides with an existing one
	ErrDuplicateDate = errors.New("an observation already exists on that date")
	// ErrNoSchedule is returned when rows are added to a payoff that observes only trade and final dates
	ErrNoSchedule = errors.New("payoff has no observation schedule")
)

// Transition reports what an operation did to a schedule.
type Transition string

const (
	TransitionNone        Transition = "none"
	TransitionGenerated   Transition = "generated"   // Empty -> Generated
	TransitionRegenerated Transition = "regenerated" // Generated or Edited -> Generated
	TransitionSuppressed  Transition = "suppressed"  // locked, inputs changed but nothing regenerated
	TransitionCleared     Transition = "cleared"     // rows dropped, back to Empty
	TransitionEdited      Transition = "edited"      // manual change, now Edited and locked
	TransitionLoaded      Transition = "loaded"      // external schedule, Edited and locked
)

// PeriodEdit is a manual override of one row. Nil fields are left untouched.
type PeriodEdit struct {
	ObservationDate *calendar.Date `json:"observationDate,omitempty"`
	CouponBarrier   *float64       `json:"couponBarrier,omitempty"`
	AutocallLevel   *float64       `json:"autocallLevel,omitempty"`
	IsCallable      *bool          `json:"isCallable,omitempty"`
	RebateAmount    *float64       `json:"rebateAmount,omitempty"`
}

// Empty reports whether the edit changes nothing.
func (e PeriodEdit) Empty() bool {
	return e.ObservationDate == nil && e.CouponBarrier == nil && e.AutocallLevel == nil &&
		e.IsCallable == nil && e.RebateAmount == nil
}

// Refresh reacts to a change of dates, payoff layout or underlyings. An unlocked
// schedule is regenerated; a locked one is left exactly as it is.
func (b *Builder) Refresh(s *Schedule, in Inputs) Transition {
	if s.GenerationLocked {
		return TransitionSuppressed
	}
	return b.regenerate(s, in)
}

// ApplyConfig reacts to a change of the schedule configuration. Any real change
// lifts the generation lock and regenerates, preserving rebates by position.
func (b *Builder) ApplyConfig(s *Schedule, previous Config, in Inputs) Transition {
	if previous.Normalize() == in.Config.Normalize() {
		return TransitionNone
	}
	return b.regenerate(s, in)
}

// Load installs an externally sourced schedule and locks generation, so extracted
// dates and rebates survive until the operator changes the configuration. Rows are
// sorted by date and re-indexed from 1. An empty load resets the schedule to Empty.
func Load(s *Schedule, periods []ObservationPeriod) Transition {
	if len(periods) == 0 {
		*s = NewSchedule()
		return TransitionCleared
	}
	s.Periods = clonePeriods(periods)
	sortAndReindex(s.Periods)
	s.State = StateEdited
	s.GenerationLocked = true
	return TransitionLoaded
}

// EditPeriod applies a manual override to the row with the given periodIndex.
// A new observation date re-derives the value date and re-sorts the schedule.
func (b *Builder) EditPeriod(s *Schedule, periodIndex int, edit PeriodEdit, in Inputs) error {
	pos, err := position(s, periodIndex)
	if err != nil {
		return err
	}
	if edit.Empty() {
		return nil
	}
	if moved := edit.ObservationDate; moved != nil && !moved.IsZero() {
		for i, other := range s.Periods {
			if i != pos && other.ObservationDate.Equal(*moved) {
				return ErrDuplicateDate
			}
		}
	}

	p := &s.Periods[pos]

	if edit.IsCallable != nil {
		p.IsCallable = *edit.IsCallable
		switch {
		case !p.IsCallable:
			p.AutocallLevel = nil
		case p.AutocallLevel == nil:
			cfg := in.Config.Normalize()
			k := pos - clampCoolOff(cfg.CoolOffPeriods, len(s.Periods))
			if k < 0 {
				k = 0
			}
			p.AutocallLevel = floatPtr(AutocallLevel(cfg.InitialAutocallLevel, cfg.StepDownValue, k))
		}
	}
	if edit.AutocallLevel != nil && p.IsCallable {
		p.AutocallLevel = floatPtr(ClampLevel(*edit.AutocallLevel))
	}
	if edit.CouponBarrier != nil {
		p.CouponBarrier = ClampLevel(*edit.CouponBarrier)
	}
	if edit.RebateAmount != nil && in.Features.Rebates {
		rebate := *edit.RebateAmount
		if rebate < 0 {
			rebate = 0
		}
		p.RebateAmount = floatPtr(rebate)
	}
	if edit.ObservationDate != nil && !edit.ObservationDate.IsZero() {
		p.ObservationDate = *edit.ObservationDate
		p.ValueDate = b.ValueDate(p.ObservationDate, in.Dates.DelayDays())
		sortAndReindex(s.Periods)
	}

	markEdited(s)
	return nil
}

// DeletePeriod removes a row and re-issues ids and period indexes from 1.
func DeletePeriod(s *Schedule, periodIndex int) error {
	pos, err := position(s, periodIndex)
	if err != nil {
		return err
	}
	s.Periods = append(s.Periods[:pos], s.Periods[pos+1:]...)
	reindex(s.Periods)
	markEdited(s)
	return nil
}

// AppendPeriod adds one row one frequency interval after the last stored
// observation date (or after the trade date when the schedule is empty).
func (b *Builder) AppendPeriod(s *Schedule, in Inputs) (ObservationPeriod, error) {
	if in.Features.Layout == LayoutNone {
		return ObservationPeriod{}, ErrNoSchedule
	}
	anchor := in.Dates.TradeDate
	if n := len(s.Periods); n > 0 {
		anchor = s.Periods[n-1].ObservationDate
	}
	if anchor.IsZero() {
		return ObservationPeriod{}, ErrNoAnchorDate
	}

	date := b.cal.NextBusinessDay(anchor.AddMonths(in.Config.Normalize().Frequency.Months()))
	pos := len(s.Periods)
	p := b.newPeriod(date, pos, pos+1, in)

	s.Periods = append(s.Periods, p)
	reindex(s.Periods)
	markEdited(s)
	return s.Periods[pos], nil
}

// InsertPeriod adds a row on an explicit date at its date-ordered position.
// The date is used as entered; only the new row's value date and features are derived.
func (b *Builder) InsertPeriod(s *Schedule, date calendar.Date, in Inputs) (ObservationPeriod, error) {
	if in.Features.Layout == LayoutNone {
		return ObservationPeriod{}, ErrNoSchedule
	}
	if date.IsZero() {
		return ObservationPeriod{}, ErrNoAnchorDate
	}
	pos := sort.Search(len(s.Periods), func(i int) bool {
		return !s.Periods[i].ObservationDate.Before(date)
	})
	if pos < len(s.Periods) && s.Periods[pos].ObservationDate.Equal(date) {
		return ObservationPeriod{}, ErrDuplicateDate
	}

	p := b.newPeriod(date, pos, len(s.Periods)+1, in)

	s.Periods = append(s.Periods, ObservationPeriod{})
	copy(s.Periods[pos+1:], s.Periods[pos:])
	s.Periods[pos] = p
	reindex(s.Periods)
	markEdited(s)
	return s.Periods[pos], nil
}

func (b *Builder) regenerate(s *Schedule, in Inputs) Transition {
	hadRows := len(s.Periods) > 0
	wasEmpty := s.State == StateEmpty || !hadRows

	periods := b.Build(in, s.Periods)
	s.GenerationLocked = false

	if len(periods) == 0 {
		s.Periods = []ObservationPeriod{}
		s.State = StateEmpty
		if hadRows {
			return TransitionCleared
		}
		return TransitionNone
	}

	s.Periods = periods
	s.State = StateGenerated
	if wasEmpty {
		return TransitionGenerated
	}
	return TransitionRegenerated
}

// newPeriod runs the value-date and feature derivation for a single new row.
func (b *Builder) newPeriod(date calendar.Date, pos, length int, in Inputs) ObservationPeriod {
	cfg := in.Config.Normalize()
	p := ObservationPeriod{
		ObservationDate: date,
		ValueDate:       b.ValueDate(date, in.Dates.DelayDays()),
		CouponBarrier:   cfg.InitialCouponBarrier,
	}
	applyCallability(&p, pos, clampCoolOff(cfg.CoolOffPeriods, length), cfg)
	p.RebateAmount = rebateFor(pos, in.Features, nil)
	return p
}

func position(s *Schedule, periodIndex int) (int, error) {
	for i, p := range s.Periods {
		if p.PeriodIndex == periodIndex {
			return i, nil
		}
	}
	return 0, ErrPeriodOutOfRange
}

func markEdited(s *Schedule) {
	s.State = StateEdited
	s.GenerationLocked = true
}

func sortAndReindex(periods []ObservationPeriod) {
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].ObservationDate.Before(periods[j].ObservationDate)
	})
	reindex(periods)
}

func reindex(periods []ObservationPeriod) {
	for i := range periods {
		periods[i].ID = i + 1
		periods[i].PeriodIndex = i + 1
	}
}
