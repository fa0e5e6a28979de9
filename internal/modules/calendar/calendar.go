// Package calendar decides which days are business days and rolls dates
// forward onto them. Holiday tables are computed per region and year from
// static rules and cached.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Region identifies a holiday table.
type Region string

const (
	RegionUS Region = "US" // NYSE
	RegionEU Region = "EU" // TARGET2
	RegionGB Region = "GB" // London Stock Exchange
	RegionCH Region = "CH" // SIX Swiss Exchange
)

// Regions lists every region with a holiday table.
func Regions() []Region {
	return []Region{RegionUS, RegionEU, RegionGB, RegionCH}
}

// Known reports whether the region has a holiday table.
func (r Region) Known() bool {
	_, ok := regionRules[r]
	return ok
}

// RegionSet is the union of regions whose holidays all count as non-business days.
type RegionSet []Region

// ParseRegions parses a comma separated list such as "US,EU".
// Blank entries are skipped; unknown regions are an error.
func ParseRegions(s string) (RegionSet, error) {
	var set RegionSet
	seen := make(map[Region]bool)
	for _, part := range strings.Split(s, ",") {
		region := Region(strings.ToUpper(strings.TrimSpace(part)))
		if region == "" || seen[region] {
			continue
		}
		if !region.Known() {
			return nil, fmt.Errorf("unknown holiday region %q", region)
		}
		seen[region] = true
		set = append(set, region)
	}
	return set, nil
}

// String renders the set as "US,EU".
func (s RegionSet) String() string {
	parts := make([]string, len(s))
	for i, r := range s {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

// Adjuster rolls a date onto a business day. The schedule engine only needs this.
type Adjuster interface {
	NextBusinessDay(d Date) Date
}

type yearKey struct {
	region Region
	year   int
}

// Calendar combines the holiday tables of a region set with operator-supplied extra holidays.
// It is safe for concurrent use.
type Calendar struct {
	regions RegionSet
	extra   map[Date]struct{}
}

// New creates a calendar for the given regions.
func New(regions RegionSet, extraHolidays ...Date) *Calendar {
	extra := make(map[Date]struct{}, len(extraHolidays))
	for _, d := range extraHolidays {
		extra[d] = struct{}{}
	}
	return &Calendar{regions: regions, extra: extra}
}

// Regions returns the regions this calendar observes.
func (c *Calendar) Regions() RegionSet {
	return c.regions
}

// IsHoliday reports whether d is a holiday in any of the calendar's regions.
func (c *Calendar) IsHoliday(d Date) bool {
	if _, ok := c.extra[d]; ok {
		return true
	}
	return IsHoliday(d, c.regions)
}

// IsBusinessDay reports whether d is neither a weekend nor a holiday.
func (c *Calendar) IsBusinessDay(d Date) bool {
	return !IsWeekend(d) && !c.IsHoliday(d)
}

// NextBusinessDay returns d itself when it is a business day, otherwise the
// first business day after it (Following convention).
func (c *Calendar) NextBusinessDay(d Date) Date {
	if d.IsZero() {
		return d
	}
	for !c.IsBusinessDay(d) {
		d = d.AddDays(1)
	}
	return d
}

var (
	tableMu sync.Mutex
	tables  = make(map[yearKey]map[Date]string)
)

func holidayTable(region Region, year int) map[Date]string {
	key := yearKey{region: region, year: year}

	tableMu.Lock()
	defer tableMu.Unlock()

	if table, ok := tables[key]; ok {
		return table
	}

	holidays := HolidaysFor(region, year)
	table := make(map[Date]string, len(holidays))
	for _, h := range holidays {
		table[h.Date] = h.Name
	}
	tables[key] = table
	return table
}

// IsWeekend reports whether d is a Saturday or Sunday.
func IsWeekend(d Date) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether d is a holiday in any region of the set.
func IsHoliday(d Date, regions RegionSet) bool {
	for _, region := range regions {
		if _, ok := holidayTable(region, d.Year())[d]; ok {
			return true
		}
	}
	return false
}

// NextBusinessDay advances d one calendar day at a time until it is neither a
// weekend nor a holiday in the region set. A business day is returned unchanged.
func NextBusinessDay(d Date, regions RegionSet) Date {
	return New(regions).NextBusinessDay(d)
}

// Holidays returns the merged, date-sorted holiday list of a region set for one year.
func Holidays(regions RegionSet, year int) []Holiday {
	var all []Holiday
	for _, region := range regions {
		for _, h := range HolidaysFor(region, year) {
			if h.Date.Year() == year {
				all = append(all, h)
			}
		}
		// Pick up next year's holidays observed in this year.
		for _, h := range HolidaysFor(region, year+1) {
			if h.Date.Year() == year {
				all = append(all, h)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date.Before(all[j].Date)
	})
	return all
}
