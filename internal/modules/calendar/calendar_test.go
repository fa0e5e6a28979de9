package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEaster(t *testing.T) {
	tests := []struct {
		year     int
		expected Date
	}{
		{2024, NewDate(2024, 3, 31)},
		{2025, NewDate(2025, 4, 20)},
		{2026, NewDate(2026, 4, 5)},
		{2027, NewDate(2027, 3, 28)},
		{2030, NewDate(2030, 4, 21)},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			result := Easter(tt.year)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, time.Sunday, result.Weekday())
		})
	}
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(NewDate(2025, 3, 15)))  // Saturday
	assert.True(t, IsWeekend(NewDate(2025, 3, 16)))  // Sunday
	assert.False(t, IsWeekend(NewDate(2025, 3, 17))) // Monday
}

func TestIsHoliday(t *testing.T) {
	tests := []struct {
		name     string
		date     Date
		regions  RegionSet
		expected bool
	}{
		{"US Independence Day", NewDate(2025, 7, 4), RegionSet{RegionUS}, true},
		{"US observed on Friday", NewDate(2026, 7, 3), RegionSet{RegionUS}, true},
		{"US Thanksgiving", NewDate(2025, 11, 27), RegionSet{RegionUS}, true},
		{"US Good Friday", NewDate(2025, 4, 18), RegionSet{RegionUS}, true},
		{"Juneteenth not before 2022", NewDate(2020, 6, 19), RegionSet{RegionUS}, false},
		{"TARGET Easter Monday", NewDate(2025, 4, 21), RegionSet{RegionEU}, true},
		{"TARGET has no Thanksgiving", NewDate(2025, 11, 27), RegionSet{RegionEU}, false},
		{"union of regions", NewDate(2025, 11, 27), RegionSet{RegionEU, RegionUS}, true},
		{"UK spring bank holiday", NewDate(2025, 5, 26), RegionSet{RegionGB}, true},
		{"UK substitute Boxing Day", NewDate(2026, 12, 28), RegionSet{RegionGB}, true},
		{"Swiss Whit Monday", NewDate(2025, 6, 9), RegionSet{RegionCH}, true},
		{"ordinary day", NewDate(2025, 3, 12), RegionSet{RegionUS, RegionEU, RegionGB, RegionCH}, false},
		{"no regions", NewDate(2025, 12, 25), nil, false},
		{"Saturday new year not observed in prior year", NewDate(2021, 12, 31), RegionSet{RegionUS}, false},
		{"Saturday new year not moved to Monday", NewDate(2022, 1, 3), RegionSet{RegionUS}, false},
		{"Sunday new year observed on Monday", NewDate(2023, 1, 2), RegionSet{RegionUS}, true},
		{"Saturday Christmas observed on Friday", NewDate(2021, 12, 24), RegionSet{RegionUS}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsHoliday(tt.date, tt.regions))
		})
	}
}

func TestNextBusinessDay(t *testing.T) {
	regions := RegionSet{RegionUS, RegionEU}

	tests := []struct {
		name     string
		date     Date
		expected Date
	}{
		{"business day unchanged", NewDate(2025, 3, 12), NewDate(2025, 3, 12)},
		{"saturday rolls to monday", NewDate(2025, 3, 15), NewDate(2025, 3, 17)},
		{"good friday rolls past easter monday", NewDate(2025, 4, 18), NewDate(2025, 4, 22)},
		{"christmas rolls past boxing day", NewDate(2025, 12, 25), NewDate(2025, 12, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NextBusinessDay(tt.date, regions)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, result, NextBusinessDay(result, regions), "adjustment must be idempotent")
		})
	}
}

func TestCalendar_ExtraHolidays(t *testing.T) {
	cal := New(RegionSet{RegionEU}, NewDate(2025, 3, 12))

	assert.True(t, cal.IsHoliday(NewDate(2025, 3, 12)))
	assert.Equal(t, NewDate(2025, 3, 13), cal.NextBusinessDay(NewDate(2025, 3, 12)))
	assert.True(t, cal.NextBusinessDay(Date{}).IsZero())
}

func TestParseRegions(t *testing.T) {
	set, err := ParseRegions(" us, EU ,,us")
	require.NoError(t, err)
	assert.Equal(t, RegionSet{RegionUS, RegionEU}, set)
	assert.Equal(t, "US,EU", set.String())

	_, err = ParseRegions("US,XX")
	assert.Error(t, err)
}

func TestHolidays_SortedWithinYear(t *testing.T) {
	holidays := Holidays(RegionSet{RegionUS, RegionGB}, 2025)
	require.NotEmpty(t, holidays)

	for i, h := range holidays {
		assert.Equal(t, 2025, h.Date.Year())
		if i > 0 {
			assert.False(t, h.Date.Before(holidays[i-1].Date))
		}
	}
}

func TestHolidaysFor_StayWithinYear(t *testing.T) {
	for _, region := range Regions() {
		for year := 2020; year <= 2030; year++ {
			for _, h := range HolidaysFor(region, year) {
				assert.Equal(t, year, h.Date.Year(), "%s %s in %d", region, h.Name, year)
			}
		}
	}
}

func TestNextBusinessDay_SaturdayNewYear(t *testing.T) {
	us := RegionSet{RegionUS}

	tests := []struct {
		date     Date
		expected Date
	}{
		{NewDate(2021, 12, 31), NewDate(2021, 12, 31)},
		{NewDate(2022, 1, 1), NewDate(2022, 1, 3)},
		{NewDate(2027, 12, 31), NewDate(2027, 12, 31)},
		{NewDate(2023, 1, 1), NewDate(2023, 1, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.date.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, NextBusinessDay(tt.date, us))
		})
	}
}

func TestDate_AddMonths(t *testing.T) {
	tests := []struct {
		start    Date
		months   int
		expected Date
	}{
		{NewDate(2025, 1, 31), 1, NewDate(2025, 2, 28)},
		{NewDate(2024, 1, 31), 1, NewDate(2024, 2, 29)},
		{NewDate(2025, 1, 15), 3, NewDate(2025, 4, 15)},
		{NewDate(2025, 8, 31), 6, NewDate(2026, 2, 28)},
		{NewDate(2025, 3, 31), -1, NewDate(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.start.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.start.AddMonths(tt.months))
		})
	}
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		When Date `json:"when"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"when":"2025-03-14"}`), &p))
	assert.Equal(t, NewDate(2025, 3, 14), p.When)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"when":"2025-03-14"}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"when":"2025-03-14T10:30:00Z"}`), &p))
	assert.Equal(t, NewDate(2025, 3, 14), p.When)

	require.NoError(t, json.Unmarshal([]byte(`{"when":null}`), &p))
	assert.True(t, p.When.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"when":"14/03/2025"}`), &p))
}

func TestDate_DaysUntil(t *testing.T) {
	assert.Equal(t, 14, NewDate(2025, 1, 1).DaysUntil(NewDate(2025, 1, 15)))
	assert.Equal(t, -1, NewDate(2025, 1, 1).DaysUntil(NewDate(2024, 12, 31)))
}
