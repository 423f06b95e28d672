package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pm25 = "Fine particles (PM 2.5)"
	no2  = "Nitrogen dioxide (NO2)"
	o3   = "Ozone (O3)"
)

func testCalculator(t *testing.T) *Calculator {
	t.Helper()
	table, err := DefaultBreakpoints()
	require.NoError(t, err)
	return NewCalculator(table)
}

func TestCalculator_Compute(t *testing.T) {
	calc := testCalculator(t)

	tests := []struct {
		name      string
		pollutant string
		conc      float64
		expected  int
	}{
		{"zero", pm25, 0, 0},
		{"top of good", pm25, 12.0, 50},
		{"bottom of moderate", pm25, 12.1, 51},
		{"inside moderate", pm25, 12.3, 51},
		{"top of moderate", pm25, 35.4, 100},
		{"inside sensitive groups", pm25, 45.0, 124},
		{"gap between rows clamps down", pm25, 12.05, 50},
		{"top of table", pm25, 500.4, 500},
		{"above table clamps", pm25, 900, 500},
		{"short code alias", "PM25", 12.0, 50},
		{"case insensitive name", "nitrogen dioxide (no2)", 53, 50},
		{"no2 moderate", no2, 100, 100},
		{"no2 inside unhealthy", no2, 505, 176},
		{"o3 moderate top", o3, 70, 100},
		{"o3 good midpoint", o3, 27, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aqi, err := calc.Compute(tt.pollutant, tt.conc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, aqi)
		})
	}
}

func TestCalculator_Compute_NegativeConcentration(t *testing.T) {
	calc := testCalculator(t)

	_, err := calc.Compute(pm25, -0.5)
	require.Error(t, err)

	var invalid *InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, pm25, invalid.Pollutant)
	assert.Equal(t, -0.5, invalid.Concentration)
}

func TestCalculator_Compute_UnknownPollutant(t *testing.T) {
	calc := testCalculator(t)

	_, err := calc.Compute("Sulfur dioxide (SO2)", 10)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "Sulfur dioxide (SO2)", cfgErr.Pollutant)
}

func TestCalculator_Compute_ContinuousAtBoundaries(t *testing.T) {
	calc := testCalculator(t)

	for _, p := range calc.Table().Pollutants() {
		intervals, err := calc.Table().Intervals(p)
		require.NoError(t, err)

		for i := 0; i < len(intervals)-1; i++ {
			atHigh, err := calc.Compute(p, intervals[i].ConcHigh)
			require.NoError(t, err)
			atNextLow, err := calc.Compute(p, intervals[i+1].ConcLow)
			require.NoError(t, err)

			assert.InDelta(t, atHigh, atNextLow, 1, "%s: boundary %d", p, i)
		}
	}
}

func TestCalculator_Compute_Monotonic(t *testing.T) {
	calc := testCalculator(t)

	for _, p := range calc.Table().Pollutants() {
		intervals, err := calc.Table().Intervals(p)
		require.NoError(t, err)

		top := intervals[len(intervals)-1].ConcHigh * 1.2
		step := top / 20000
		prev := -1
		for c := 0.0; c <= top; c += step {
			aqi, err := calc.Compute(p, c)
			require.NoError(t, err)
			require.GreaterOrEqual(t, aqi, prev, "%s at %g", p, c)
			require.GreaterOrEqual(t, aqi, 0)
			prev = aqi
		}
	}
}

func TestCalculator_Records(t *testing.T) {
	calc := testCalculator(t)

	t.Run("skips invalid readings", func(t *testing.T) {
		readings := []Reading{
			{Pollutant: pm25, District: "BK01", TimePeriod: "Annual Average 2020", Concentration: 12.3},
			{Pollutant: no2, District: "BK01", TimePeriod: "Annual Average 2020", Concentration: -3},
			{Pollutant: o3, District: "BK01", TimePeriod: "Annual Average 2020", Concentration: 27},
		}

		records, skipped, err := calc.Records(readings)
		require.NoError(t, err)
		require.Len(t, skipped, 1)
		assert.Len(t, records, 2)
		assert.Equal(t, AQIRecord{District: "BK01", TimePeriod: "Annual Average 2020", Pollutant: pm25, AQI: 51}, records[0])
	})

	t.Run("stops on unknown pollutant", func(t *testing.T) {
		readings := []Reading{
			{Pollutant: pm25, District: "BK01", TimePeriod: "2020", Concentration: 5},
			{Pollutant: "Benzene", District: "BK01", TimePeriod: "2020", Concentration: 5},
		}

		_, _, err := calc.Records(readings)
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})
}
