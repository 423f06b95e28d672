package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups for a district, year, or scope that has no value.
var ErrNotFound = errors.New("not found")

// ConfigurationError reports missing or inconsistent reference data, such as an
// unknown pollutant or a malformed breakpoint table. It aborts the run.
type ConfigurationError struct {
	Pollutant string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Pollutant == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: pollutant %q: %s", e.Pollutant, e.Reason)
}

// InvalidInputError reports a reading that cannot be converted to an index.
type InvalidInputError struct {
	Pollutant     string
	Concentration float64
	Reason        string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s concentration %g: %s", e.Pollutant, e.Concentration, e.Reason)
}

// ParseError reports a time period label that does not yield a year.
type ParseError struct {
	TimePeriod string
	District   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse time period %q (district %q): no year found", e.TimePeriod, e.District)
}

// InsufficientDataError reports too little history to fit a trend.
type InsufficientDataError struct {
	Scope         Scope
	DistinctYears int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s trend: %d distinct year(s), need at least 2", e.Scope, e.DistinctYears)
}
