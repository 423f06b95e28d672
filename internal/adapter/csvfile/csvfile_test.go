package csvfile

import (
	"strings"
	"testing"

	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawSample = `Unique ID,Indicator ID,Name,Measure,Measure Info,Geo Type Name,Geo Join ID,Geo Place Name,Time Period,Start_Date,Data Value,Message
1,365,Fine particles (PM 2.5),Mean,mcg/m3,UHF42,101,Kingsbridge - Riverdale,Annual Average 2015,01/01/2015,12.3,
2,375,Nitrogen dioxide (NO2),Mean,ppb,UHF42,101,Kingsbridge - Riverdale,Winter 2015-16,12/01/2015,30.5,
3,386,Ozone (O3),Mean,ppb,UHF42,101,Kingsbridge - Riverdale,Summer 2015,06/01/2015,31.0,
4,640,Boiler Emissions- Total SO2 Emissions,Number per km2,number,UHF42,101,Kingsbridge - Riverdale,2015,01/01/2015,0.2,
`

func TestDecodeReadings(t *testing.T) {
	readings, stats, err := DecodeReadings(strings.NewReader(rawSample))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rows)
	assert.Zero(t, stats.Skipped)
	require.Len(t, readings, 4)
	assert.Equal(t, domain.Reading{
		Pollutant:     "Fine particles (PM 2.5)",
		District:      "Kingsbridge - Riverdale",
		TimePeriod:    "Annual Average 2015",
		Concentration: 12.3,
	}, readings[0])
}

func TestDecodeReadings_SkipsUnparsableValues(t *testing.T) {
	in := "Name,Geo Place Name,Time Period,Data Value\n" +
		"Ozone (O3),A,Summer 2015,abc\n" +
		"Ozone (O3),A,Summer 2016,30\n"
	readings, stats, err := DecodeReadings(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 1, stats.Skipped)
	require.Len(t, readings, 1)
	assert.Equal(t, "Summer 2016", readings[0].TimePeriod)
}

func TestDecodeReadings_MissingColumn(t *testing.T) {
	_, _, err := DecodeReadings(strings.NewReader("Name,Time Period\nOzone (O3),2015\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Geo Place Name")
}

func TestDecodeReadings_Empty(t *testing.T) {
	readings, _, err := DecodeReadings(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestClean_KeepsConfiguredPollutants(t *testing.T) {
	data, stats, err := Clean(strings.NewReader(rawSample), []string{"Fine particles (PM 2.5)", "Ozone (O3)"})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rows)

	want := "Name,Geo Place Name,Time Period,Data Value\n" +
		"Fine particles (PM 2.5),Kingsbridge - Riverdale,Annual Average 2015,12.3\n" +
		"Ozone (O3),Kingsbridge - Riverdale,Summer 2015,31\n"
	assert.Equal(t, want, string(data))

	readings, _, err := DecodeReadings(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Len(t, readings, 2)
}

func TestClean_NoMatchesWritesHeader(t *testing.T) {
	data, _, err := Clean(strings.NewReader(rawSample), []string{"Carbon monoxide"})
	require.NoError(t, err)
	assert.Equal(t, "Name,Geo Place Name,Time Period,Data Value\n", string(data))
}

func TestAverages_RoundTripStampsScope(t *testing.T) {
	in := []domain.DistrictAverage{
		{District: "BK01", Scope: domain.ScopeWinter, Year: 2015, AverageAQI: 51},
		{District: "BK01", Scope: domain.ScopeWinter, Year: 2016, AverageAQI: 75.5},
	}
	data, err := EncodeAverages(in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "district_id,year,average_aqi\n"))
	assert.NotContains(t, string(data), "Winter")

	out, err := DecodeAverages(data, domain.ScopeWinter)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("averages mismatch (-want +got):\n%s", diff)
	}
}

func TestAverages_Empty(t *testing.T) {
	data, err := EncodeAverages(nil)
	require.NoError(t, err)

	out, err := DecodeAverages(data, domain.ScopeAnnual)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestEncodeRawRows(t *testing.T) {
	data, err := EncodeRawRows([]RawRow{{Name: "Ozone (O3)", GeoPlace: "A", TimePeriod: "Summer 2015", DataValue: "30.1"}})
	require.NoError(t, err)

	readings, _, err := DecodeReadings(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.InDelta(t, 30.1, readings[0].Concentration, 1e-9)
}
