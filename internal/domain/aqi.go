package domain

import (
	"errors"
	"math"
)

// Calculator converts concentrations to AQI values using a BreakpointTable.
type Calculator struct {
	table *BreakpointTable
}

// NewCalculator creates a Calculator over the given table.
func NewCalculator(table *BreakpointTable) *Calculator {
	return &Calculator{table: table}
}

// Table returns the breakpoint table backing the calculator.
func (c *Calculator) Table() *BreakpointTable {
	return c.table
}

// Compute returns the AQI for one reading. Concentrations outside the table are
// clamped to the nearest interval, so sensor noise above the nominal maximum
// reports the top of the scale instead of failing.
func (c *Calculator) Compute(pollutant string, concentration float64) (int, error) {
	p, err := c.table.lookup(pollutant)
	if err != nil {
		return 0, err
	}
	if concentration < 0 || math.IsNaN(concentration) {
		return 0, &InvalidInputError{Pollutant: pollutant, Concentration: concentration, Reason: "must be a non-negative number"}
	}

	iv, conc := selectInterval(p.Intervals, concentration)
	slope := float64(iv.IndexHigh-iv.IndexLow) / (iv.ConcHigh - iv.ConcLow)
	aqi := slope*(conc-iv.ConcLow) + float64(iv.IndexLow)
	return int(math.Round(aqi)), nil
}

// selectInterval picks the last interval whose lower bound is at or below c and
// clamps c into it. Values in the gap between two EPA rows (e.g. 12.05 for PM2.5)
// clamp to the high end of the lower row.
func selectInterval(intervals []BreakpointInterval, c float64) (BreakpointInterval, float64) {
	if c <= intervals[0].ConcLow {
		return intervals[0], intervals[0].ConcLow
	}
	iv := intervals[0]
	for _, candidate := range intervals[1:] {
		if candidate.ConcLow > c {
			break
		}
		iv = candidate
	}
	return iv, math.Min(c, iv.ConcHigh)
}

// Records converts readings into AQI records. Readings with invalid input are
// returned in skipped and left out of the result; a configuration error (unknown
// pollutant) stops conversion and is returned as err.
func (c *Calculator) Records(readings []Reading) (records []AQIRecord, skipped []error, err error) {
	records = make([]AQIRecord, 0, len(readings))
	for _, r := range readings {
		aqi, cerr := c.Compute(r.Pollutant, r.Concentration)
		if cerr != nil {
			var invalid *InvalidInputError
			if errors.As(cerr, &invalid) {
				skipped = append(skipped, cerr)
				continue
			}
			return nil, skipped, cerr
		}
		records = append(records, AQIRecord{
			District:   r.District,
			TimePeriod: r.TimePeriod,
			Pollutant:  r.Pollutant,
			AQI:        aqi,
		})
	}
	return records, skipped, nil
}
