package calendar

import (
	"sort"
	"time"
)

// Observance decides what happens when a fixed-date holiday falls on a weekend.
type Observance int

const (
	// ObserveNone keeps the holiday on its date (weekend holidays are simply lost)
	ObserveNone Observance = iota
	// ObserveNearestWeekday moves Saturday to Friday and Sunday to Monday (NYSE).
	// A Saturday holiday is not moved back into the previous year.
	ObserveNearestWeekday
	// ObserveNextMonday moves weekend holidays to the following Monday (UK substitute days)
	ObserveNextMonday
)

// FixedDateHoliday is a holiday on the same month/day every year.
type FixedDateHoliday struct {
	Name       string
	Month      time.Month
	Day        int
	Observance Observance
	FromYear   int // first year the holiday applies (0 = always)
}

// RuleBasedHoliday is the Nth weekday of a month (N = -1 for the last one).
type RuleBasedHoliday struct {
	Name    string
	Month   time.Month
	Weekday time.Weekday
	N       int
}

// EasterBasedHoliday is a fixed offset from Western Easter Sunday.
type EasterBasedHoliday struct {
	Name       string
	DaysOffset int
}

// HolidayRuleSet defines the holiday table of one region.
type HolidayRuleSet struct {
	Fixed  []FixedDateHoliday
	Rules  []RuleBasedHoliday
	Easter []EasterBasedHoliday
	// Custom covers rules that do not fit the shapes above (UK Christmas/Boxing Day substitution).
	Custom func(year int) []Holiday
}

// Holiday is one non-business day of a region.
type Holiday struct {
	Date   Date   `json:"date"`
	Name   string `json:"name"`
	Region Region `json:"region"`
}

var regionRules = map[Region]HolidayRuleSet{
	RegionUS: {
		Fixed: []FixedDateHoliday{
			{Name: "New Year's Day", Month: time.January, Day: 1, Observance: ObserveNearestWeekday},
			{Name: "Juneteenth", Month: time.June, Day: 19, Observance: ObserveNearestWeekday, FromYear: 2022},
			{Name: "Independence Day", Month: time.July, Day: 4, Observance: ObserveNearestWeekday},
			{Name: "Christmas Day", Month: time.December, Day: 25, Observance: ObserveNearestWeekday},
		},
		Rules: []RuleBasedHoliday{
			{Name: "Martin Luther King Jr. Day", Month: time.January, Weekday: time.Monday, N: 3},
			{Name: "Presidents Day", Month: time.February, Weekday: time.Monday, N: 3},
			{Name: "Memorial Day", Month: time.May, Weekday: time.Monday, N: -1},
			{Name: "Labor Day", Month: time.September, Weekday: time.Monday, N: 1},
			{Name: "Thanksgiving", Month: time.November, Weekday: time.Thursday, N: 4},
		},
		Easter: []EasterBasedHoliday{
			{Name: "Good Friday", DaysOffset: -2},
		},
	},
	RegionEU: {
		Fixed: []FixedDateHoliday{
			{Name: "New Year's Day", Month: time.January, Day: 1},
			{Name: "Labour Day", Month: time.May, Day: 1},
			{Name: "Christmas Day", Month: time.December, Day: 25},
			{Name: "Boxing Day", Month: time.December, Day: 26},
		},
		Easter: []EasterBasedHoliday{
			{Name: "Good Friday", DaysOffset: -2},
			{Name: "Easter Monday", DaysOffset: 1},
		},
	},
	RegionGB: {
		Fixed: []FixedDateHoliday{
			{Name: "New Year's Day", Month: time.January, Day: 1, Observance: ObserveNextMonday},
		},
		Rules: []RuleBasedHoliday{
			{Name: "Early May Bank Holiday", Month: time.May, Weekday: time.Monday, N: 1},
			{Name: "Spring Bank Holiday", Month: time.May, Weekday: time.Monday, N: -1},
			{Name: "Summer Bank Holiday", Month: time.August, Weekday: time.Monday, N: -1},
		},
		Easter: []EasterBasedHoliday{
			{Name: "Good Friday", DaysOffset: -2},
			{Name: "Easter Monday", DaysOffset: 1},
		},
		Custom: ukChristmas,
	},
	RegionCH: {
		Fixed: []FixedDateHoliday{
			{Name: "New Year's Day", Month: time.January, Day: 1},
			{Name: "Berchtoldstag", Month: time.January, Day: 2},
			{Name: "Labour Day", Month: time.May, Day: 1},
			{Name: "National Day", Month: time.August, Day: 1},
			{Name: "Christmas Eve", Month: time.December, Day: 24},
			{Name: "Christmas Day", Month: time.December, Day: 25},
			{Name: "St. Stephen's Day", Month: time.December, Day: 26},
			{Name: "New Year's Eve", Month: time.December, Day: 31},
		},
		Easter: []EasterBasedHoliday{
			{Name: "Good Friday", DaysOffset: -2},
			{Name: "Easter Monday", DaysOffset: 1},
			{Name: "Ascension Day", DaysOffset: 39},
			{Name: "Whit Monday", DaysOffset: 50},
		},
	},
}

// Easter returns Western (Gregorian) Easter Sunday using the anonymous computus.
func Easter(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451

	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return NewDate(year, time.Month(month), day)
}

// HolidaysFor computes the holiday table of a region for one year, sorted by date.
// Unknown regions have no holidays.
func HolidaysFor(region Region, year int) []Holiday {
	rules, ok := regionRules[region]
	if !ok {
		return nil
	}

	holidays := make([]Holiday, 0, len(rules.Fixed)+len(rules.Rules)+len(rules.Easter)+2)

	for _, h := range rules.Fixed {
		if h.FromYear != 0 && year < h.FromYear {
			continue
		}
		date := observe(NewDate(year, h.Month, h.Day), h.Observance)
		holidays = append(holidays, Holiday{Date: date, Name: h.Name, Region: region})
	}

	for _, h := range rules.Rules {
		var date Date
		if h.N < 0 {
			date = lastWeekday(year, h.Month, h.Weekday)
		} else {
			date = nthWeekday(year, h.Month, h.Weekday, h.N)
		}
		holidays = append(holidays, Holiday{Date: date, Name: h.Name, Region: region})
	}

	easter := Easter(year)
	for _, h := range rules.Easter {
		holidays = append(holidays, Holiday{Date: easter.AddDays(h.DaysOffset), Name: h.Name, Region: region})
	}

	if rules.Custom != nil {
		for _, h := range rules.Custom(year) {
			h.Region = region
			holidays = append(holidays, h)
		}
	}

	sort.SliceStable(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays
}

func observe(date Date, observance Observance) Date {
	switch observance {
	case ObserveNearestWeekday:
		switch date.Weekday() {
		case time.Saturday:
			if friday := date.AddDays(-1); friday.Year() == date.Year() {
				return friday
			}
		case time.Sunday:
			return date.AddDays(1)
		}
	case ObserveNextMonday:
		switch date.Weekday() {
		case time.Saturday:
			return date.AddDays(2)
		case time.Sunday:
			return date.AddDays(1)
		}
	}
	return date
}

// ukChristmas applies the substitute-day rule to the Christmas/Boxing Day pair,
// where the two days can push each other (Christmas on Saturday moves Boxing Day to Tuesday).
func ukChristmas(year int) []Holiday {
	christmas := NewDate(year, time.December, 25)
	boxing := NewDate(year, time.December, 26)

	switch christmas.Weekday() {
	case time.Friday:
		boxing = NewDate(year, time.December, 28)
	case time.Saturday:
		christmas = NewDate(year, time.December, 27)
		boxing = NewDate(year, time.December, 28)
	case time.Sunday:
		christmas = NewDate(year, time.December, 27)
	}

	return []Holiday{
		{Date: christmas, Name: "Christmas Day"},
		{Date: boxing, Name: "Boxing Day"},
	}
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) Date {
	date := NewDate(year, month, 1)
	offset := int(weekday - date.Weekday())
	if offset < 0 {
		offset += 7
	}
	return date.AddDays(offset + (n-1)*7)
}

func lastWeekday(year int, month time.Month, weekday time.Weekday) Date {
	date := NewDate(year, month+1, 0)
	offset := int(date.Weekday() - weekday)
	if offset < 0 {
		offset += 7
	}
	return date.AddDays(-offset)
}
