package analysis

import (
	"fmt"
	"image/color"
	"math"

	"marks-quartile-server/marks"
	"marks-quartile-server/models"
)

// Palette holds the fixed fill colour of each quartile, Q1 first.
var Palette = [4]color.RGBA{
	{R: 54, G: 162, B: 235, A: 255}, // blue
	{R: 75, G: 192, B: 192, A: 255}, // teal
	{R: 255, G: 206, B: 86, A: 255}, // yellow
	{R: 255, G: 99, B: 132, A: 255}, // red
}

// SliceAlpha is the opacity used for slice fills; borders are opaque.
const SliceAlpha = 0.7

var (
	sliceLabels = [4]string{"Q1 (0-25%)", "Q2 (25-50%)", "Q3 (50-75%)", "Q4 (75-100%)"}
	sliceTitles = [4]string{"First Quartile", "Second Quartile", "Third Quartile", "Fourth Quartile"}
)

// Slices turns a summary into the four display slices.
func Slices(s marks.Summary) []models.Slice {
	counts := s.Counts()
	total := s.Total()
	out := make([]models.Slice, 0, len(counts))
	for i, n := range counts {
		c := Palette[i]
		out = append(out, models.Slice{
			Quartile: i + 1,
			Label:    sliceLabels[i],
			Title:    sliceTitles[i],
			Count:    n,
			Percent:  Percent(n, total),
			Color:    fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, SliceAlpha),
		})
	}
	return out
}

// Percent is n as a whole-number share of total, 0 when total is 0.
func Percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
