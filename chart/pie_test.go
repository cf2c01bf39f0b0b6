package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marks-quartile-server/analysis"
	"marks-quartile-server/marks"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)

	f, err = ParseFormat("svg")
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, f)
	assert.Equal(t, "image/svg+xml", f.ContentType())

	_, err = ParseFormat("gif")
	assert.Error(t, err)
}

func TestRenderPiePNG(t *testing.T) {
	slices := analysis.Slices(marks.Summary{Q1: 3, Q2: 2, Q3: 2, Q4: 3})

	var buf bytes.Buffer
	err := RenderPie(&buf, slices, Options{Width: 300, Height: 300, Title: "Marks", Format: FormatPNG})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestRenderPieSVGSkipsEmptySlices(t *testing.T) {
	slices := analysis.Slices(marks.Summary{Q1: 4})

	var buf bytes.Buffer
	err := RenderPie(&buf, slices, Options{Width: 200, Height: 200, Format: FormatSVG})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "Q1 (0-25%)")
	assert.NotContains(t, out, "Q2 (25-50%)")
}

func TestRenderPieEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPie(&buf, analysis.Slices(marks.Summary{}), Options{Width: 200, Height: 200})
	assert.ErrorIs(t, err, ErrEmptyChart)
	assert.Zero(t, buf.Len())
}

func TestSliceColors(t *testing.T) {
	fill, stroke := sliceColors(1)
	assert.Equal(t, uint8(54), stroke.R)
	assert.Equal(t, uint8(255), stroke.A)
	assert.Equal(t, uint8(179), fill.A)
}
