package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed breakpoints.yaml
var defaultBreakpointsYAML []byte

// BreakpointInterval maps a concentration range onto an index range.
type BreakpointInterval struct {
	ConcLow   float64 `yaml:"c_low"`
	ConcHigh  float64 `yaml:"c_high"`
	IndexLow  int     `yaml:"i_low"`
	IndexHigh int     `yaml:"i_high"`
}

// IndexCategory is a pollutant-independent AQI band such as "Moderate" (51-100).
type IndexCategory struct {
	Name string `yaml:"name"`
	Low  int    `yaml:"low"`
	High int    `yaml:"high"`
}

type pollutantDef struct {
	Name      string               `yaml:"name"`
	Code      string               `yaml:"code"`
	Unit      string               `yaml:"unit"`
	Intervals []BreakpointInterval `yaml:"intervals"`
}

type breakpointFile struct {
	Categories []IndexCategory `yaml:"categories"`
	Pollutants []pollutantDef  `yaml:"pollutants"`
}

// BreakpointTable is read-only reference data: per-pollutant concentration bands
// plus the shared index categories.
type BreakpointTable struct {
	categories []IndexCategory
	byName     map[string]*pollutantDef
	names      []string
}

// DefaultBreakpoints returns the embedded EPA table.
func DefaultBreakpoints() (*BreakpointTable, error) {
	return LoadBreakpoints(bytes.NewReader(defaultBreakpointsYAML))
}

// LoadBreakpointsFile reads a table from path, or the embedded table when path is empty.
func LoadBreakpointsFile(path string) (*BreakpointTable, error) {
	if path == "" {
		return DefaultBreakpoints()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("open breakpoints file: %v", err)}
	}
	defer f.Close()
	return LoadBreakpoints(f)
}

// LoadBreakpoints parses and validates a YAML breakpoint table.
func LoadBreakpoints(r io.Reader) (*BreakpointTable, error) {
	var file breakpointFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("decode breakpoints: %v", err)}
	}
	if len(file.Categories) == 0 {
		return nil, &ConfigurationError{Reason: "no index categories defined"}
	}
	if len(file.Pollutants) == 0 {
		return nil, &ConfigurationError{Reason: "no pollutants defined"}
	}

	t := &BreakpointTable{
		categories: file.Categories,
		byName:     make(map[string]*pollutantDef, len(file.Pollutants)*2),
	}
	for i := range file.Pollutants {
		p := &file.Pollutants[i]
		if err := validateIntervals(p.Name, p.Intervals); err != nil {
			return nil, err
		}
		for _, key := range []string{p.Name, p.Code} {
			if key == "" {
				continue
			}
			k := pollutantKey(key)
			if _, dup := t.byName[k]; dup {
				return nil, &ConfigurationError{Pollutant: key, Reason: "defined more than once"}
			}
			t.byName[k] = p
		}
		t.names = append(t.names, p.Name)
	}
	sort.Strings(t.names)
	return t, nil
}

func validateIntervals(pollutant string, intervals []BreakpointInterval) error {
	if len(intervals) == 0 {
		return &ConfigurationError{Pollutant: pollutant, Reason: "no breakpoint intervals"}
	}
	for i, iv := range intervals {
		if iv.ConcLow < 0 || iv.ConcHigh <= iv.ConcLow || iv.IndexHigh < iv.IndexLow {
			return &ConfigurationError{Pollutant: pollutant, Reason: fmt.Sprintf("interval %d is empty or inverted", i)}
		}
		if i == 0 {
			continue
		}
		prev := intervals[i-1]
		if iv.ConcLow < prev.ConcHigh || iv.IndexLow < prev.IndexHigh {
			return &ConfigurationError{Pollutant: pollutant, Reason: fmt.Sprintf("interval %d overlaps or is out of order", i)}
		}
	}
	return nil
}

func pollutantKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Intervals returns the ordered breakpoint intervals for a pollutant, by dataset
// name or short code.
func (t *BreakpointTable) Intervals(pollutant string) ([]BreakpointInterval, error) {
	p, err := t.lookup(pollutant)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.Intervals), nil
}

func (t *BreakpointTable) lookup(pollutant string) (*pollutantDef, error) {
	p, ok := t.byName[pollutantKey(pollutant)]
	if !ok {
		return nil, &ConfigurationError{Pollutant: pollutant, Reason: "no breakpoint table"}
	}
	return p, nil
}

// Pollutants returns the dataset names of every configured pollutant, sorted.
func (t *BreakpointTable) Pollutants() []string {
	return slices.Clone(t.names)
}

// Categories returns the shared index bands in ascending order.
func (t *BreakpointTable) Categories() []IndexCategory {
	return slices.Clone(t.categories)
}

// Category names the band an AQI value falls in. Values above the top band
// (predictions are not clamped) report the top band.
func (t *BreakpointTable) Category(aqi int) string {
	for _, c := range t.categories {
		if aqi <= c.High {
			return c.Name
		}
	}
	return t.categories[len(t.categories)-1].Name
}
