// Package domain models NYC community air survey readings and the AQI values,
// district averages, and trend forecasts derived from them.
//
// # Data Source
//
// Readings come from the NYC Environment & Health Data Portal "Air Quality"
// export. Each row carries a pollutant name, a geographic place (community
// district), a time period label, and a concentration. Only three pollutants are
// kept by the cleaning step:
//
//	Fine particles (PM 2.5)   ug/m3
//	Nitrogen dioxide (NO2)    ppb
//	Ozone (O3)                ppb
//
// # Time Period Labels
//
// Labels are free text and mix several shapes:
//
//	"Annual Average 2015"
//	"Winter 2015-16"        (December 2015 through February 2016)
//	"Summer 2015"
//	"2005-2007"             (multi-year rollups)
//
// The year of a record is the first four-digit year in its label, so a winter
// belongs to the year it starts in. Labels with no year are skipped (see
// [ParseError]). Winter and Summer scopes match labels containing the season name;
// the Annual scope accepts every label.
//
// # AQI Conversion
//
// Concentrations map onto the 0-500 index through the EPA piecewise-linear
// breakpoint table (see breakpoints.yaml):
//
//	AQI = (Ihi - Ilo) / (Chi - Clo) * (C - Clo) + Ilo
//
// rounded to the nearest integer. Readings below the table clamp to its first row,
// readings above it clamp to its last row. When several pollutants are reported for
// the same district and period, the worst one is the period's index.
//
// # Forecasting
//
// Each scope gets one ordinary least-squares line of average AQI on year, pooled
// across districts. Forecasts evaluate that line for every training district; they
// are not clamped to the AQI scale.
package domain
