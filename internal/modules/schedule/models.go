// Package schedule turns product dates and a schedule configuration into a
// dated, business-day adjusted list of observation periods, and keeps that
// list consistent while an operator edits it.
package schedule

import (
	"errors"
	"strings"

	"github.com/aristath/structura/internal/modules/calendar"
)

// DefaultDelayDays is the settlement delay used when the value date does not follow the trade date.
const DefaultDelayDays = 14

// Level bounds for barrier and autocall percentages. Out-of-range values are clamped.
const (
	MinLevel = 0.0
	MaxLevel = 300.0
)

var (
	// ErrPeriodOutOfRange is returned when a period index does not exist
	ErrPeriodOutOfRange = errors.New("observation period out of range")
	// ErrNoAnchorDate is returned when a period cannot be appended because no date is known
	ErrNoAnchorDate = errors.New("no observation or trade date to extend the schedule from")
)

// Frequency is the spacing between periodic observations.
type Frequency string

const (
	Monthly      Frequency = "monthly"
	Quarterly    Frequency = "quarterly"
	SemiAnnually Frequency = "semi-annually"
	Annually     Frequency = "annually"
)

// ParseFrequency accepts the canonical names plus common spellings.
func ParseFrequency(s string) (Frequency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "month", "1m":
		return Monthly, true
	case "quarterly", "quarter", "3m":
		return Quarterly, true
	case "semi-annually", "semi-annual", "semiannually", "semiannual", "6m":
		return SemiAnnually, true
	case "annually", "annual", "yearly", "12m", "1y":
		return Annually, true
	}
	return "", false
}

// Valid reports whether f is one of the four supported frequencies.
func (f Frequency) Valid() bool {
	_, ok := ParseFrequency(string(f))
	return ok && f == canonical(f)
}

func canonical(f Frequency) Frequency {
	parsed, _ := ParseFrequency(string(f))
	return parsed
}

// Months returns the number of months per period. Unknown values fall back to quarterly.
func (f Frequency) Months() int {
	switch canonical(f) {
	case Monthly:
		return 1
	case SemiAnnually:
		return 6
	case Annually:
		return 12
	default:
		return 3
	}
}

// ProductDates are the contractual dates of a product.
type ProductDates struct {
	TradeDate            calendar.Date `json:"tradeDate"`
	ValueDate            calendar.Date `json:"valueDate"`
	FinalObservationDate calendar.Date `json:"finalObservationDate"`
}

// DelayDays is the settlement delay between trade and value date,
// falling back to DefaultDelayDays when it is not positive.
func (d ProductDates) DelayDays() int {
	if d.TradeDate.IsZero() || d.ValueDate.IsZero() {
		return DefaultDelayDays
	}
	delay := d.TradeDate.DaysUntil(d.ValueDate)
	if delay <= 0 {
		return DefaultDelayDays
	}
	return delay
}

// Ready reports whether there is a non-empty interval to generate observations in.
func (d ProductDates) Ready() bool {
	return !d.TradeDate.IsZero() && !d.FinalObservationDate.IsZero() &&
		d.TradeDate.Before(d.FinalObservationDate)
}

// Ordered reports whether trade <= value <= final for the dates that are set.
func (d ProductDates) Ordered() bool {
	if !d.TradeDate.IsZero() && !d.ValueDate.IsZero() && d.ValueDate.Before(d.TradeDate) {
		return false
	}
	if !d.ValueDate.IsZero() && !d.FinalObservationDate.IsZero() && d.FinalObservationDate.Before(d.ValueDate) {
		return false
	}
	if !d.TradeDate.IsZero() && !d.FinalObservationDate.IsZero() && d.FinalObservationDate.Before(d.TradeDate) {
		return false
	}
	return true
}

// Config holds the operator parameters that drive generation.
// Any change to these fields lifts a generation lock.
type Config struct {
	Frequency            Frequency `json:"frequency"`
	CoolOffPeriods       int       `json:"coolOffPeriods"`
	StepDownValue        float64   `json:"stepDownValue"`
	InitialAutocallLevel float64   `json:"initialAutocallLevel"`
	InitialCouponBarrier float64   `json:"initialCouponBarrier"`
}

// DefaultConfig is the configuration of a fresh draft.
func DefaultConfig() Config {
	return Config{
		Frequency:            Quarterly,
		CoolOffPeriods:       0,
		StepDownValue:        0,
		InitialAutocallLevel: 100,
		InitialCouponBarrier: 70,
	}
}

// Normalize clamps out-of-range values instead of rejecting them.
func (c Config) Normalize() Config {
	if f := canonical(c.Frequency); f != "" {
		c.Frequency = f
	} else {
		c.Frequency = Quarterly
	}
	if c.CoolOffPeriods < 0 {
		c.CoolOffPeriods = 0
	}
	c.InitialAutocallLevel = ClampLevel(c.InitialAutocallLevel)
	c.InitialCouponBarrier = ClampLevel(c.InitialCouponBarrier)
	return c
}

// ObservationPeriod is one row of the schedule.
type ObservationPeriod struct {
	ID              int           `json:"id"`
	PeriodIndex     int           `json:"periodIndex"`
	ObservationDate calendar.Date `json:"observationDate"`
	ValueDate       calendar.Date `json:"valueDate"`
	IsCallable      bool          `json:"isCallable"`
	AutocallLevel   *float64      `json:"autocallLevel"`
	CouponBarrier   float64       `json:"couponBarrier"`
	RebateAmount    *float64      `json:"rebateAmount"`
}

// State is the lifecycle state of a schedule.
type State string

const (
	StateEmpty     State = "empty"
	StateGenerated State = "generated"
	StateEdited    State = "edited"
)

// Schedule is the editable, ordered list of periods plus its generation state.
// GenerationLocked is tracked explicitly: it is set by manual edits and external
// loads and only cleared by a configuration change.
type Schedule struct {
	Periods          []ObservationPeriod `json:"observationPeriods"`
	State            State               `json:"state"`
	GenerationLocked bool                `json:"generationLocked"`
}

// NewSchedule returns an empty, unlocked schedule.
func NewSchedule() Schedule {
	return Schedule{Periods: []ObservationPeriod{}, State: StateEmpty}
}

// Clone returns a deep copy.
func (s Schedule) Clone() Schedule {
	out := s
	out.Periods = clonePeriods(s.Periods)
	return out
}

// ClampLevel bounds a percentage level to [MinLevel, MaxLevel].
func ClampLevel(v float64) float64 {
	if v < MinLevel {
		return MinLevel
	}
	if v > MaxLevel {
		return MaxLevel
	}
	return v
}

func clonePeriods(periods []ObservationPeriod) []ObservationPeriod {
	out := make([]ObservationPeriod, len(periods))
	for i, p := range periods {
		out[i] = p
		out[i].AutocallLevel = cloneFloat(p.AutocallLevel)
		out[i].RebateAmount = cloneFloat(p.RebateAmount)
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func floatPtr(v float64) *float64 {
	return &v
}
