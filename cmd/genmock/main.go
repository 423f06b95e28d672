// Command genmock writes a synthetic air quality export in the upstream CSV
// schema. Output is fully determined by the flags, so fixtures can be
// regenerated byte for byte.
//
// Usage:
//
//	go run ./cmd/genmock -out data/raw_aqi_data.csv -from 2009 -to 2022 -seed 7
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/aqi-forecast-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
)

type district struct {
	id   string
	name string
}

var districts = []district{
	{"101", "Kingsbridge - Riverdale"},
	{"102", "Northeast Bronx"},
	{"105", "Crotona -Tremont"},
	{"201", "Greenpoint"},
	{"204", "East New York"},
	{"207", "Bensonhurst - Bay Ridge"},
	{"302", "Central Harlem - Morningside Heights"},
	{"306", "Union Square - Lower East Side"},
	{"402", "West Queens"},
	{"406", "Fresh Meadows"},
	{"501", "Port Richmond"},
	{"504", "South Beach - Tottenville"},
}

// indicator describes one measured pollutant and how its synthetic series drifts.
type indicator struct {
	id      string
	name    string
	measure string
	unit    string
	base    float64 // concentration in the first year
	trend   float64 // change per year
	winter  float64 // multiplier applied to winter periods
	summer  float64 // multiplier applied to summer periods
	seasons bool    // false for ozone, which is only reported for summer
}

var indicators = []indicator{
	{"365", "Fine particles (PM 2.5)", "Mean", "mcg/m3", 11.5, -0.35, 1.15, 0.9, true},
	{"375", "Nitrogen dioxide (NO2)", "Mean", "ppb", 28, -0.8, 1.2, 0.8, true},
	{"386", "Ozone (O3)", "Mean", "ppb", 29, 0.15, 1, 1, false},
	{"640", "Boiler Emissions- Total SO2 Emissions", "Number per km2", "number", 4, -0.2, 1, 1, true},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/raw_aqi_data.csv", "output path for the raw CSV")
	from := flag.Int("from", 2009, "first year to generate")
	to := flag.Int("to", 2022, "last year to generate")
	seed := flag.Uint64("seed", 7, "random seed")
	flag.Parse()

	if *to <= *from {
		flag.Usage()
		return fmt.Errorf("-to must be after -from (got %d..%d)", *from, *to)
	}

	rows := generate(*from, *to, rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)))
	data, err := csvfile.EncodeRawRows(rows)
	if err != nil {
		return err
	}
	if err := writeFile(*out, data); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %d rows to %s", len(rows), *out)

	return printStats(data)
}

func generate(from, to int, rng *rand.Rand) []csvfile.RawRow {
	var rows []csvfile.RawRow
	uid := 100000
	for year := from; year <= to; year++ {
		for _, ind := range indicators {
			for _, d := range districts {
				level := ind.base + ind.trend*float64(year-from)
				// Districts differ by a stable offset plus yearly noise.
				offset := float64(len(d.name)%7) * 0.4
				for _, period := range periods(ind, year) {
					uid++
					v := (level + offset) * period.factor * (1 + rng.NormFloat64()*0.05)
					rows = append(rows, csvfile.RawRow{
						UniqueID:    fmt.Sprintf("%d", uid),
						IndicatorID: ind.id,
						Name:        ind.name,
						Measure:     ind.measure,
						MeasureInfo: ind.unit,
						GeoTypeName: "UHF42",
						GeoJoinID:   d.id,
						GeoPlace:    d.name,
						TimePeriod:  period.label,
						StartDate:   period.start,
						DataValue:   fmt.Sprintf("%.2f", math.Max(v, 0)),
					})
				}
			}
		}
	}
	return rows
}

type period struct {
	label  string
	start  string
	factor float64
}

func periods(ind indicator, year int) []period {
	summer := period{fmt.Sprintf("Summer %d", year), fmt.Sprintf("06/01/%d", year), ind.summer}
	if !ind.seasons {
		return []period{summer}
	}
	return []period{
		{fmt.Sprintf("Annual Average %d", year), fmt.Sprintf("01/01/%d", year), 1},
		{fmt.Sprintf("Winter %d-%02d", year, (year+1)%100), fmt.Sprintf("12/01/%d", year), ind.winter},
		summer,
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// printStats scores the generated rows with the real calculator and reports
// how they spread across index categories.
func printStats(data []byte) error {
	readings, _, err := csvfile.DecodeReadings(bytes.NewReader(data))
	if err != nil {
		return err
	}
	table, err := domain.DefaultBreakpoints()
	if err != nil {
		return err
	}
	calc := domain.NewCalculator(table)

	perPollutant := map[string]int{}
	perCategory := map[string]int{}
	for _, r := range readings {
		aqi, err := calc.Compute(r.Pollutant, r.Concentration)
		if err != nil {
			continue
		}
		perPollutant[r.Pollutant]++
		perCategory[table.Category(aqi)]++
	}

	names := make([]string, 0, len(perPollutant))
	for n := range perPollutant {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		log.Printf("  %-28s %d scored readings", n, perPollutant[n])
	}
	for _, c := range table.Categories() {
		if perCategory[c.Name] > 0 {
			log.Printf("  %-32s %d", c.Name, perCategory[c.Name])
		}
	}
	return nil
}
