package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"marks-quartile-server/analysis"
	"marks-quartile-server/models"
)

// Format selects the image encoding of a rendered chart.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ErrEmptyChart is returned when every slice is zero; there is nothing to draw.
var ErrEmptyChart = errors.New("chart has no non-zero slices")

// ParseFormat maps a query value to a Format. Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", s)
	}
}

// ContentType is the MIME type of the encoded image.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Options controls the size and title of a rendered chart.
type Options struct {
	Width  int
	Height int
	Title  string
	Format Format
}

// RenderPie draws the quartile slices as a pie chart. Zero slices are left out
// because they have no area; their labels would overlap the neighbours.
func RenderPie(w io.Writer, slices []models.Slice, opts Options) error {
	values := make([]gochart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Count <= 0 {
			continue
		}
		fill, stroke := sliceColors(s.Quartile)
		values = append(values, gochart.Value{
			Value: float64(s.Count),
			Label: fmt.Sprintf("%s: %d (%d%%)", s.Label, s.Count, s.Percent),
			Style: gochart.Style{
				FillColor:   fill,
				StrokeColor: stroke,
				StrokeWidth: 1,
			},
		})
	}
	if len(values) == 0 {
		return ErrEmptyChart
	}

	pie := gochart.PieChart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Values: values,
	}
	if opts.Title != "" {
		pie.TitleStyle = gochart.Style{FontSize: 14}
	}

	provider := gochart.PNG
	if opts.Format == FormatSVG {
		provider = gochart.SVG
	}
	if err := pie.Render(provider, w); err != nil {
		return fmt.Errorf("failed to render pie chart: %w", err)
	}
	return nil
}

func sliceColors(quartile int) (fill, stroke drawing.Color) {
	if quartile < 1 || quartile > len(analysis.Palette) {
		return drawing.ColorBlack, drawing.ColorBlack
	}
	c := analysis.Palette[quartile-1]
	stroke = drawing.Color{R: c.R, G: c.G, B: c.B, A: 255}
	fill = stroke.WithAlpha(uint8(math.Round(analysis.SliceAlpha * 255)))
	return fill, stroke
}
