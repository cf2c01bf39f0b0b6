package models

import (
	"time"

	"marks-quartile-server/marks"
)

// Slice is one quartile as shown to the user
type Slice struct {
	Quartile int    `json:"quartile"` // 1..4
	Label    string `json:"label"`    // Chart label, e.g. "Q1 (0-25%)"
	Title    string `json:"title"`    // Card title, e.g. "First Quartile"
	Count    int    `json:"count"`
	Percent  int    `json:"percent"` // Rounded share of all marks
	Color    string `json:"color"`   // CSS rgba() fill colour
}

// Statistics describes the mark set as a whole
type Statistics struct {
	Count             int     `json:"count"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	Mean              float64 `json:"mean"`
	Median            float64 `json:"median"`
	StandardDeviation float64 `json:"standardDeviation"`
}

// Report is the full result of analysing one upload
type Report struct {
	ID         string           `json:"id"`
	Filename   string           `json:"filename,omitempty"`
	Format     string           `json:"format,omitempty"`
	Summary    marks.Summary    `json:"summary"`
	Boundaries marks.Boundaries `json:"boundaries"`
	Statistics Statistics       `json:"statistics"`
	Slices     []Slice          `json:"slices"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// ExtractRequest is the body of POST /api/extract. Exactly one of Text or Rows is used.
type ExtractRequest struct {
	Text *string `json:"text"`
	Rows [][]any `json:"rows"`
}

// ExtractResponse lists the marks found in an ExtractRequest
type ExtractResponse struct {
	Marks []float64 `json:"marks"`
	Count int       `json:"count"`
}

// ClassifyRequest is the body of POST /api/classify
type ClassifyRequest struct {
	Marks []float64 `json:"marks"`
}

// ClassifyResponse is the quartile breakdown of a ClassifyRequest
type ClassifyResponse struct {
	Summary    marks.Summary     `json:"summary"`
	Boundaries *marks.Boundaries `json:"boundaries,omitempty"`
	Slices     []Slice           `json:"slices"`
}
