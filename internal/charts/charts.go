// Package charts renders the dashboard series as SVG.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"clubstats/internal/aggregate"
)

// Chart titles.
const (
	TitleGender     = "Gender Difference of Members"
	TitleMembership = "Membership of 2023 Vs 2024"
	TitleSessions   = "Average Reading Session of 2023 Vs 2024"
)

// Chart names used in URLs.
const (
	KindGender     = "gender"
	KindMembership = "membership"
	KindSessions   = "sessions"
)

const (
	defaultWidth  = 640
	defaultHeight = 400

	// ContentType is the media type of every rendered chart.
	ContentType = "image/svg+xml"
)

// ErrUnknownChart is returned by Render for an unknown chart name.
var ErrUnknownChart = errors.New("unknown chart")

var (
	color2023 = drawing.ColorFromHex("1f77b4")
	color2024 = drawing.ColorFromHex("ff7f0e")
	colorMale = drawing.ColorFromHex("636efa")
	colorFem  = drawing.ColorFromHex("ef553b")
)

// Size is the pixel size of a rendered chart.
type Size struct {
	Width  int
	Height int
}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = defaultWidth
	}
	if s.Height <= 0 {
		s.Height = defaultHeight
	}
	return s
}

// Render writes the chart named kind for v.
func Render(w io.Writer, kind string, v aggregate.View, size Size) error {
	switch kind {
	case KindGender:
		return Gender(w, v.Gender, size)
	case KindMembership:
		return Membership(w, v.Membership, size)
	case KindSessions:
		return Sessions(w, v.Sessions, size)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, kind)
	}
}

// Gender renders the male/female proportion pie. With no members it renders
// an empty placeholder.
func Gender(w io.Writer, points []aggregate.GenderPoint, size Size) error {
	size = size.orDefault()
	values := make([]chart.Value, 0, len(points))
	var total int64
	for i, p := range points {
		c := colorMale
		if i%2 == 1 {
			c = colorFem
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %d", p.Label, p.Value),
			Value: float64(p.Value),
			Style: chart.Style{FillColor: c, StrokeColor: drawing.ColorWhite},
		})
		total += p.Value
	}
	if total <= 0 {
		return placeholder(w, TitleGender, size)
	}

	pie := chart.PieChart{
		Title:  TitleGender,
		Width:  size.Width,
		Height: size.Height,
		Values: values,
	}
	return renderBuffered(w, TitleGender, func(buf io.Writer) error {
		return pie.Render(chart.SVG, buf)
	})
}

// Membership renders the yearly membership line chart.
func Membership(w io.Writer, points []aggregate.MembershipPoint, size Size) error {
	clubs := make([]string, len(points))
	y23 := make([]float64, len(points))
	y24 := make([]float64, len(points))
	for i, p := range points {
		clubs[i], y23[i], y24[i] = p.Club, float64(p.Y2023), float64(p.Y2024)
	}
	return yearLines(w, TitleMembership, "Total Membership", clubs, y23, y24, size)
}

// Sessions renders the average reading session line chart.
func Sessions(w io.Writer, points []aggregate.SessionPoint, size Size) error {
	clubs := make([]string, len(points))
	y23 := make([]float64, len(points))
	y24 := make([]float64, len(points))
	for i, p := range points {
		clubs[i], y23[i], y24[i] = p.Club, p.Y2023, p.Y2024
	}
	return yearLines(w, TitleSessions, "Average Reading Session", clubs, y23, y24, size)
}

// yearLines draws a 2023 and a 2024 series over a categorical club axis.
// Rows keep their order, so repeated club names get their own x position.
func yearLines(w io.Writer, title, yName string, clubs []string, y23, y24 []float64, size Size) error {
	size = size.orDefault()
	if len(clubs) == 0 {
		return placeholder(w, title, size)
	}

	// go-chart takes the x range from the ticks, so blank ticks half a slot
	// beyond each end keep a lone club from collapsing the axis.
	xs := make([]float64, len(clubs))
	ticks := make([]chart.Tick, 0, len(clubs)+2)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	for i, c := range clubs {
		xs[i] = float64(i)
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: c})
	}
	ticks = append(ticks, chart.Tick{Value: float64(len(clubs)) - 0.5})

	ch := chart.Chart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Reading Club",
			Ticks: ticks,
			Style: chart.Style{TextRotationDegrees: 45},
		},
		YAxis: chart.YAxis{
			Name:  yName,
			Range: &chart.ContinuousRange{Min: 0, Max: yMax(y23, y24)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "2023", XValues: xs, YValues: y23, Style: lineStyle(color2023)},
			chart.ContinuousSeries{Name: "2024", XValues: xs, YValues: y24, Style: lineStyle(color2024)},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return renderBuffered(w, title, func(buf io.Writer) error {
		return ch.Render(chart.SVG, buf)
	})
}

func lineStyle(c drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: c,
		StrokeWidth: 2,
		DotColor:    c,
		DotWidth:    4,
	}
}

// yMax leaves headroom above the largest value and is never zero.
func yMax(series ...[]float64) float64 {
	top := 0.0
	for _, s := range series {
		for _, v := range s {
			if !math.IsNaN(v) && v > top {
				top = v
			}
		}
	}
	if top <= 0 {
		return 1
	}
	return top * 1.1
}

// renderBuffered buffers the chart so a render error never leaves a
// half-written SVG behind.
func renderBuffered(w io.Writer, title string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %q chart: %w", title, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// placeholder writes a titled SVG with a "No data" note.
func placeholder(w io.Writer, title string, size Size) error {
	t := html.EscapeString(title)
	_, err := fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<title>%s</title>`+
		`<rect width="100%%" height="100%%" fill="#ffffff"/>`+
		`<text x="50%%" y="32" text-anchor="middle" font-family="sans-serif" font-size="16">%s</text>`+
		`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#888888">No data</text>`+
		`</svg>`,
		size.Width, size.Height, size.Width, size.Height, t, t)
	return err
}
