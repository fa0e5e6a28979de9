package testing

import (
	"github.com/aristath/structura/internal/modules/calendar"
	"github.com/aristath/structura/internal/modules/schedule"
)

// NewProductDatesFixture returns a one-year product traded mid-January 2025
func NewProductDatesFixture() schedule.ProductDates {
	return schedule.ProductDates{
		TradeDate:            calendar.NewDate(2025, 1, 15),
		ValueDate:            calendar.NewDate(2025, 1, 29),
		FinalObservationDate: calendar.NewDate(2026, 1, 15),
	}
}

// NewExtractedScheduleFixture returns a schedule as a term-sheet extraction
// would supply it: irregular dates and per-period rebates
func NewExtractedScheduleFixture() []schedule.ObservationPeriod {
	rebate := func(v float64) *float64 { return &v }
	level := func(v float64) *float64 { return &v }
	return []schedule.ObservationPeriod{
		{
			ID: 1, PeriodIndex: 1,
			ObservationDate: calendar.NewDate(2025, 3, 3),
			ValueDate:       calendar.NewDate(2025, 3, 10),
			CouponBarrier:   65,
			RebateAmount:    rebate(1.25),
		},
		{
			ID: 2, PeriodIndex: 2,
			ObservationDate: calendar.NewDate(2025, 6, 2),
			ValueDate:       calendar.NewDate(2025, 6, 9),
			IsCallable:      true,
			AutocallLevel:   level(97.5),
			CouponBarrier:   65,
			RebateAmount:    rebate(2.5),
		},
		{
			ID: 3, PeriodIndex: 3,
			ObservationDate: calendar.NewDate(2025, 12, 1),
			ValueDate:       calendar.NewDate(2025, 12, 8),
			IsCallable:      true,
			AutocallLevel:   level(95),
			CouponBarrier:   65,
			RebateAmount:    rebate(3.75),
		},
	}
}
