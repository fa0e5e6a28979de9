package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/structura/internal/modules/payoff"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

func TestGenerate_Bundle(t *testing.T) {
	out, err := execute(t, "generate",
		"--trade", "2025-01-15",
		"--value", "2025-01-29",
		"--final", "2026-01-15",
		"--underlyings", "SX5E,SPX",
	)
	require.NoError(t, err)

	var bundle struct {
		ObservationPeriods []struct {
			PeriodIndex     int    `json:"periodIndex"`
			ObservationDate string `json:"observationDate"`
		} `json:"observationPeriods"`
		PayoffVariant string   `json:"payoffVariant"`
		Underlyings   []string `json:"underlyings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &bundle))

	assert.Equal(t, "phoenix", bundle.PayoffVariant)
	assert.Equal(t, []string{"SX5E", "SPX"}, bundle.Underlyings)
	require.Len(t, bundle.ObservationPeriods, 4)
	assert.Equal(t, 1, bundle.ObservationPeriods[0].PeriodIndex)
	assert.Equal(t, "2025-04-15", bundle.ObservationPeriods[0].ObservationDate)
	assert.Equal(t, "2026-01-15", bundle.ObservationPeriods[3].ObservationDate)
}

func TestGenerate_Review(t *testing.T) {
	out, err := execute(t, "generate",
		"--variant", "phoenix",
		"--trade", "2025-01-15",
		"--final", "2026-01-15",
		"--param", "memoryCoupon=true",
		"--review",
	)
	require.NoError(t, err)

	var report payoff.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, payoff.Phoenix, report.Variant)
	assert.NotEmpty(t, report.Narrative)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing final", []string{"generate", "--trade", "2025-01-15"}, "final"},
		{"bad date", []string{"generate", "--trade", "15/01/2025", "--final", "2026-01-15"}, "--trade"},
		{"bad frequency", []string{"generate", "--trade", "2025-01-15", "--final", "2026-01-15", "--frequency", "weekly"}, "frequency"},
		{"bad param", []string{"generate", "--trade", "2025-01-15", "--final", "2026-01-15", "--param", "strike"}, "key=value"},
		{"bad variant", []string{"generate", "--trade", "2025-01-15", "--final", "2026-01-15", "--variant", "butterfly"}, "invalid input"},
		{"bad region", []string{"generate", "--trade", "2025-01-15", "--final", "2026-01-15", "--regions", "XX"}, "XX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseParams(t *testing.T) {
	values, err := parseParams([]string{"strike=95", "memoryCoupon=true", "barrierType= european "})
	require.NoError(t, err)
	assert.Equal(t, payoff.Values{
		"strike":       95.0,
		"memoryCoupon": true,
		"barrierType":  "european",
	}, values)
}

func TestHolidays(t *testing.T) {
	out, err := execute(t, "holidays", "--region", "EU", "--year", "2025")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7) // header plus six TARGET2 holidays
	assert.Contains(t, lines[0], "HOLIDAY")
	assert.Contains(t, out, "2025-04-18")
	assert.Contains(t, out, "Easter Monday")

	_, err = execute(t, "holidays", "--region", "US,EU")
	assert.Error(t, err)
}

func TestVariants(t *testing.T) {
	out, err := execute(t, "variants")
	require.NoError(t, err)
	assert.Contains(t, out, "phoenix")
	assert.Contains(t, out, "himalaya")

	out, err = execute(t, "variants", "--json")
	require.NoError(t, err)
	var catalog []payoff.Descriptor
	require.NoError(t, json.Unmarshal([]byte(out), &catalog))
	assert.Len(t, catalog, len(payoff.Catalog()))
}
