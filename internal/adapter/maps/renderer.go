// Package maps renders district AQI values as standalone HTML map pages.
package maps

import (
	"bytes"
	"cmp"
	_ "embed"
	"fmt"
	"html/template"
	"math"
	"slices"

	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
)

//go:embed map.html.tmpl
var pageTemplate string

//go:embed plot.html.tmpl
var plotTemplate string

// Colors of the index bands, lowest first.
var bandColors = []string{"#00e400", "#ffff00", "#ff7e00", "#ff0000", "#8f3f97", "#7e0023"}

// Row is one district on a map.
type Row struct {
	District string
	AQI      float64
	Category string
	Color    template.CSS
}

// LegendEntry is one index band shown under the map.
type LegendEntry struct {
	Name  string
	Low   int
	High  int
	Color template.CSS
}

// View is everything a map page shows.
type View struct {
	Title    string
	Scope    domain.Scope
	Year     int
	Forecast bool
	Rows     []Row
	Legend   []LegendEntry
}

// Renderer turns averages and predictions into HTML pages.
type Renderer struct {
	table *domain.BreakpointTable
	tmpl  *template.Template
	plot  *template.Template
}

// NewRenderer parses the page templates. Categories and colors come from table.
func NewRenderer(table *domain.BreakpointTable) (*Renderer, error) {
	tmpl, err := template.New("map").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse map template: %w", err)
	}
	plot, err := template.New("plot").Parse(plotTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse plot template: %w", err)
	}
	return &Renderer{table: table, tmpl: tmpl, plot: plot}, nil
}

// RenderAverages renders the observed averages of one scope and year. Rows of
// other years are ignored.
func (r *Renderer) RenderAverages(scope domain.Scope, year int, averages []domain.DistrictAverage) ([]byte, error) {
	view := r.newView(scope, year, false)
	for _, a := range averages {
		if a.Year == year {
			view.Rows = append(view.Rows, r.row(a.District, a.AverageAQI))
		}
	}
	return r.render(view)
}

// RenderPredictions renders the forecast of one scope and year.
func (r *Renderer) RenderPredictions(scope domain.Scope, year int, predictions []domain.Prediction) ([]byte, error) {
	view := r.newView(scope, year, true)
	for _, p := range predictions {
		if p.Year == year {
			view.Rows = append(view.Rows, r.row(p.District, p.PredictedAQI))
		}
	}
	return r.render(view)
}

func (r *Renderer) newView(scope domain.Scope, year int, forecast bool) View {
	title := fmt.Sprintf("%s AQI %d", scope, year)
	if forecast {
		title = fmt.Sprintf("Predicted %s AQI %d", scope, year)
	}
	v := View{Title: title, Scope: scope, Year: year, Forecast: forecast}
	for i, c := range r.table.Categories() {
		v.Legend = append(v.Legend, LegendEntry{Name: c.Name, Low: c.Low, High: c.High, Color: bandColor(i)})
	}
	return v
}

func (r *Renderer) row(district string, aqi float64) Row {
	category, color := r.band(aqi)
	return Row{District: district, AQI: aqi, Category: category, Color: color}
}

func (r *Renderer) band(aqi float64) (string, template.CSS) {
	rounded := int(math.Round(aqi))
	idx := 0
	for i, c := range r.table.Categories() {
		idx = i
		if rounded <= c.High {
			break
		}
	}
	return r.table.Category(rounded), bandColor(idx)
}

func (r *Renderer) render(v View) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render map %q: %w", v.Title, err)
	}
	return buf.Bytes(), nil
}

// PlotPoint is one year of a district on its scatter plot, already placed in
// SVG coordinates.
type PlotPoint struct {
	Year     int
	AQI      float64
	Category string
	Color    template.CSS
	X, Y     float64
}

// PlotView is a district's scatter of annual averages over the years.
type PlotView struct {
	Title    string
	District string
	Width    int
	Height   int
	Left     int
	Right    int
	Top      int
	Bottom   int
	YMax     int
	Points   []PlotPoint
}

const (
	plotWidth  = 640
	plotHeight = 360
	plotMargin = 48
)

// RenderDistrictPlot renders a scatter of year against average AQI for one
// district. Rows of other districts are ignored; a district with no rows is
// an error.
func (r *Renderer) RenderDistrictPlot(district string, averages []domain.DistrictAverage) ([]byte, error) {
	var own []domain.DistrictAverage
	for _, a := range averages {
		if a.District == district {
			own = append(own, a)
		}
	}
	if len(own) == 0 {
		return nil, fmt.Errorf("plot %q: no averages", district)
	}
	slices.SortFunc(own, func(a, b domain.DistrictAverage) int { return cmp.Compare(a.Year, b.Year) })

	v := PlotView{
		Title:    fmt.Sprintf("Annual AQI, %s", district),
		District: district,
		Width:    plotWidth,
		Height:   plotHeight,
		Left:     plotMargin,
		Right:    plotWidth - plotMargin,
		Top:      plotMargin,
		Bottom:   plotHeight - plotMargin,
		YMax:     axisMax(own),
	}
	first, last := own[0].Year, own[len(own)-1].Year
	for _, a := range own {
		category, color := r.band(a.AverageAQI)
		v.Points = append(v.Points, PlotPoint{
			Year:     a.Year,
			AQI:      a.AverageAQI,
			Category: category,
			Color:    color,
			X:        scale(float64(a.Year-first), float64(last-first), float64(v.Left), float64(v.Right)),
			Y:        scale(a.AverageAQI, float64(v.YMax), float64(v.Bottom), float64(v.Top)),
		})
	}

	var buf bytes.Buffer
	if err := r.plot.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render plot %q: %w", district, err)
	}
	return buf.Bytes(), nil
}

// axisMax rounds the largest average up to the next multiple of 50.
func axisMax(averages []domain.DistrictAverage) int {
	top := 0.0
	for _, a := range averages {
		top = math.Max(top, a.AverageAQI)
	}
	return max(50, int(math.Ceil(top/50))*50)
}

// scale maps v in [0, span] onto [from, to]. A zero span lands in the middle.
func scale(v, span, from, to float64) float64 {
	if span == 0 {
		return (from + to) / 2
	}
	return from + v/span*(to-from)
}

func bandColor(i int) template.CSS {
	if i >= len(bandColors) {
		i = len(bandColors) - 1
	}
	return template.CSS(bandColors[i])
}
