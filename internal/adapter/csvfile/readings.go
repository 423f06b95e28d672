// Package csvfile reads and writes the pipeline's CSV artifacts with csvutil.
package csvfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
	"github.com/jszwec/csvutil"
)

// RawRow is one row of the upstream air quality export. Only the columns the
// pipeline reads are typed; the rest are carried so mock data looks real.
type RawRow struct {
	UniqueID    string `csv:"Unique ID"`
	IndicatorID string `csv:"Indicator ID"`
	Name        string `csv:"Name"`
	Measure     string `csv:"Measure"`
	MeasureInfo string `csv:"Measure Info"`
	GeoTypeName string `csv:"Geo Type Name"`
	GeoJoinID   string `csv:"Geo Join ID"`
	GeoPlace    string `csv:"Geo Place Name"`
	TimePeriod  string `csv:"Time Period"`
	StartDate   string `csv:"Start_Date"`
	DataValue   string `csv:"Data Value"`
	Message     string `csv:"Message"`
}

// DecodeStats counts rows dropped while decoding.
type DecodeStats struct {
	Rows    int
	Skipped int
}

// DecodeReadings decodes rows with the columns Name, Geo Place Name, Time Period,
// and Data Value. Extra columns are ignored. Rows whose values do not parse are
// skipped and counted; a malformed file is an error.
func DecodeReadings(r io.Reader) ([]domain.Reading, DecodeStats, error) {
	var stats DecodeStats
	dec, err := csvutil.NewDecoder(newReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.Reading{}, stats, nil
		}
		return nil, stats, fmt.Errorf("create readings decoder: %w", err)
	}
	if err := requireColumns(dec.Header(), "Name", "Geo Place Name", "Time Period", "Data Value"); err != nil {
		return nil, stats, err
	}

	readings := []domain.Reading{}
	for {
		var rd domain.Reading
		err := dec.Decode(&rd)
		if errors.Is(err, io.EOF) {
			break
		}
		stats.Rows++
		if err != nil {
			var typeErr *csvutil.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				stats.Skipped++
				continue
			}
			return nil, stats, fmt.Errorf("decode readings: %w", err)
		}
		readings = append(readings, rd)
	}
	return readings, stats, nil
}

// EncodeReadings writes readings in the cleaned dataset schema.
func EncodeReadings(readings []domain.Reading) ([]byte, error) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	enc := csvutil.NewEncoder(w)
	if len(readings) == 0 {
		if err := enc.EncodeHeader(domain.Reading{}); err != nil {
			return nil, fmt.Errorf("encode readings header: %w", err)
		}
	}
	for _, rd := range readings {
		if err := enc.Encode(rd); err != nil {
			return nil, fmt.Errorf("encode reading: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush readings: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeRawRows writes rows in the upstream export schema.
func EncodeRawRows(rows []RawRow) ([]byte, error) {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode raw rows: %w", err)
	}
	return data, nil
}

func requireColumns(header []string, cols ...string) error {
	for _, c := range cols {
		if !slices.Contains(header, c) {
			return fmt.Errorf("missing required column %q", c)
		}
	}
	return nil
}
