package csvfile

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
)

// Clean reduces a raw export to the readings of the given pollutants in the
// cleaned dataset schema. Row order is preserved.
func Clean(raw io.Reader, pollutants []string) ([]byte, DecodeStats, error) {
	readings, stats, err := DecodeReadings(raw)
	if err != nil {
		return nil, stats, fmt.Errorf("clean raw data: %w", err)
	}
	kept := slices.DeleteFunc(readings, func(rd domain.Reading) bool {
		return !slices.Contains(pollutants, rd.Pollutant)
	})
	data, err := EncodeReadings(kept)
	if err != nil {
		return nil, stats, err
	}
	return data, stats, nil
}

// EncodeAverages writes averages with the columns district_id, year, average_aqi.
func EncodeAverages(averages []domain.DistrictAverage) ([]byte, error) {
	if len(averages) == 0 {
		return []byte("district_id,year,average_aqi\n"), nil
	}
	data, err := marshal(averages)
	if err != nil {
		return nil, fmt.Errorf("encode averages: %w", err)
	}
	return data, nil
}

// DecodeAverages reads an averages artifact and stamps every row with scope.
func DecodeAverages(data []byte, scope domain.Scope) ([]domain.DistrictAverage, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.DistrictAverage{}, nil
	}
	var averages []domain.DistrictAverage
	if err := unmarshal(data, &averages); err != nil {
		return nil, fmt.Errorf("decode %s averages: %w", scope, err)
	}
	if averages == nil {
		averages = []domain.DistrictAverage{}
	}
	for i := range averages {
		averages[i].Scope = scope
	}
	return averages, nil
}
