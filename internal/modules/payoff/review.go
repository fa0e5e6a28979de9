package payoff

import (
	"fmt"

	"github.com/aristath/structura/internal/modules/schedule"
)

// Severity of a review issue. Issues never block saving.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of Review.
type Issue struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Period   int      `json:"period,omitempty"`
}

// Report is the result of reviewing a draft.
type Report struct {
	Variant   Variant `json:"variant"`
	Title     string  `json:"title"`
	Narrative string  `json:"narrative"`
	Issues    []Issue `json:"issues"`
}

// Review checks a parameter set against its schedule and basket and returns
// the narrative together with any inconsistencies found.
func Review(p Params, periods []schedule.ObservationPeriod, underlyings int) Report {
	v := p.Variant()
	r := Report{Variant: v, Title: v.Title(), Narrative: p.Narrative(), Issues: []Issue{}}

	if underlyings <= 0 {
		r.warn("no_underlyings", 0, "no underlyings selected")
	}

	switch {
	case v.UsesSchedule() && len(periods) == 0:
		r.warn("no_observations", 0, "the schedule has no observation dates; set trade and final dates")
	case !v.UsesSchedule() && len(periods) > 0:
		r.info("unused_schedule", 0, fmt.Sprintf("%s only observes at the final date; %d scheduled periods are ignored", v.Title(), len(periods)))
	}

	switch params := p.(type) {
	case PhoenixParams:
		r.checkCallable(periods)
		r.checkBarrierUnderStrike(params.Protection.Level, params.Strike)
	case OrionParams:
		r.checkCallable(periods)
		if params.LowerBarrier >= params.UpperBarrier {
			r.warn("empty_coupon_range", 0, "the lower coupon barrier is not below the upper barrier")
		}
	case HimalayaParams:
		if underlyings > 0 && len(periods) != underlyings {
			r.warn("observation_count_mismatch", 0,
				fmt.Sprintf("Himalaya expects one observation per underlying (%d), schedule has %d", underlyings, len(periods)))
		}
	case SharkParams:
		if params.Rebate == 0 {
			r.info("no_knock_out_rebate", 0, "a knock-out pays no rebate")
		}
	case ReverseConvertibleParams:
		r.checkBarrierUnderStrike(params.Protection.Level, params.Strike)
	case ReverseConvertibleBondParams:
		r.checkBarrierUnderStrike(params.Protection.Level, params.Strike)
	case ParticipationParams:
		if !hasRebates(periods) && params.Rebate == 0 {
			r.info("no_rebates", 0, "no period carries a rebate")
		}
	}

	for _, period := range periods {
		if period.IsCallable && period.AutocallLevel != nil && *period.AutocallLevel < period.CouponBarrier {
			r.warn("autocall_below_coupon_barrier", period.PeriodIndex,
				fmt.Sprintf("autocall level %s%% is below the coupon barrier %s%%", num(*period.AutocallLevel), num(period.CouponBarrier)))
		}
	}
	return r
}

// HasWarnings reports whether any issue is a warning.
func (r Report) HasWarnings() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

func (r *Report) checkCallable(periods []schedule.ObservationPeriod) {
	if len(periods) == 0 {
		return
	}
	for _, p := range periods {
		if p.IsCallable {
			return
		}
	}
	r.warn("no_callable_periods", 0, "every period is in the non-call period; the product can never autocall")
}

func (r *Report) checkBarrierUnderStrike(barrier, strike float64) {
	if barrier > strike {
		r.warn("barrier_above_strike", 0, fmt.Sprintf("protection barrier %s%% is above the strike %s%%", num(barrier), num(strike)))
	}
}

func (r *Report) warn(code string, period int, msg string) {
	r.Issues = append(r.Issues, Issue{Code: code, Severity: SeverityWarning, Message: msg, Period: period})
}

func (r *Report) info(code string, period int, msg string) {
	r.Issues = append(r.Issues, Issue{Code: code, Severity: SeverityInfo, Message: msg, Period: period})
}

func hasRebates(periods []schedule.ObservationPeriod) bool {
	for _, p := range periods {
		if p.RebateAmount != nil && *p.RebateAmount != 0 {
			return true
		}
	}
	return false
}
