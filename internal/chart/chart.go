// Package chart renders grade distributions as PNG bar charts.
package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/godilite/gradebot/internal/dataset"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrInvalidRequest = errors.New("invalid chart request")

const (
	defaultWidth  = 10 * vg.Inch
	defaultHeight = 6 * vg.Inch
)

// skyblue
var defaultBarColor = color.RGBA{R: 135, G: 206, B: 235, A: 255}

// Request describes a single bar chart.
type Request struct {
	Title  string
	XLabel string
	YLabel string
	Labels []string
	Values []float64
}

// GradeRequest builds the chart for one course's grade counts, one bar per
// grade label in label order.
func GradeRequest(professor, course string, counts dataset.GradeCounts) Request {
	title := professor + " Grade Distribution"
	if course != "" {
		title = fmt.Sprintf("%s - %s Grade Distribution", professor, course)
	}

	labels := dataset.Labels()
	req := Request{
		Title:  title,
		XLabel: "Grade",
		YLabel: "Number of Students",
		Labels: make([]string, len(labels)),
		Values: make([]float64, len(labels)),
	}
	for i, l := range labels {
		req.Labels[i] = l.String()
		req.Values[i] = float64(counts.Get(l))
	}
	return req
}

type Option func(*Renderer)

func WithSize(width, height vg.Length) Option {
	return func(r *Renderer) {
		r.width = width
		r.height = height
	}
}

func WithBarColor(c color.Color) Option {
	return func(r *Renderer) {
		r.barColor = c
	}
}

// Renderer draws charts in memory. It holds no mutable state and may be
// shared between goroutines.
type Renderer struct {
	width    vg.Length
	height   vg.Length
	barColor color.Color
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		width:    defaultWidth,
		height:   defaultHeight,
		barColor: defaultBarColor,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the chart encoded as PNG.
func (r *Renderer) Render(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Values) == 0 || len(req.Labels) != len(req.Values) {
		return nil, fmt.Errorf("%w: %d labels for %d values", ErrInvalidRequest, len(req.Labels), len(req.Values))
	}

	p := plot.New()
	p.Title.Text = req.Title
	p.X.Label.Text = req.XLabel
	p.Y.Label.Text = req.YLabel

	bars, err := plotter.NewBarChart(plotter.Values(req.Values), barWidth(r.width, len(req.Values)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	bars.Color = r.barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(req.Labels...)

	p.Y.Min = 0
	if maxValue(req.Values) <= 0 {
		p.Y.Max = 1
	}

	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func barWidth(canvas vg.Length, bars int) vg.Length {
	w := canvas / vg.Length(bars*2)
	if w > vg.Points(40) {
		w = vg.Points(40)
	}
	return w
}

func maxValue(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
