package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marks-quartile-server/ingest"
	"marks-quartile-server/marks"
	"marks-quartile-server/metrics"
	"marks-quartile-server/models"
)

type memoryCache struct {
	mu      sync.Mutex
	reports map[string]models.Report
	getErr  error
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{reports: map[string]models.Report{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.reports[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memoryCache) Set(_ context.Context, key string, report *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.reports[key] = *report
	return nil
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestAnalyzeCSV(t *testing.T) {
	rec := metrics.NewRecorder()
	a := NewAnalyzer(nil, rec)
	a.now = fixedNow

	data := []byte("name,mark\nA,10\nB,20\nC,30\nD,40\nE,50\nF,60\nG,70\nH,80\nI,90\nJ,100\n")
	report, err := a.Analyze(context.Background(), "class.csv", data)
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "class.csv", report.Filename)
	assert.Equal(t, "csv", report.Format)
	assert.Equal(t, marks.Summary{Q1: 3, Q2: 2, Q3: 2, Q4: 3}, report.Summary)
	assert.Equal(t, 32.5, report.Boundaries.B1)
	assert.Equal(t, 77.5, report.Boundaries.B3)
	assert.Equal(t, fixedNow(), report.CreatedAt)

	assert.Equal(t, 10, report.Statistics.Count)
	assert.Equal(t, 10.0, report.Statistics.Min)
	assert.Equal(t, 100.0, report.Statistics.Max)
	assert.Equal(t, 55.0, report.Statistics.Mean)
	assert.Equal(t, 55.0, report.Statistics.Median)
	assert.InDelta(t, 28.7228, report.Statistics.StandardDeviation, 1e-4)

	require.Len(t, report.Slices, 4)
	assert.Equal(t, 30, report.Slices[0].Percent)

	n, err := testutil.GatherAndCount(rec.Registry(), "marks_uploads_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "unsupported",
			filename: "marks.docx",
			data:     "85",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ingest.ErrUnsupportedFileType)
			},
		},
		{
			name:     "no marks",
			filename: "marks.csv",
			data:     "name,mark\nA,absent",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ingest.ErrNoMarks)
			},
		},
		{
			name:     "corrupt workbook",
			filename: "marks.xlsx",
			data:     "not a zip",
			check: func(t *testing.T, err error) {
				var decodeErr *ingest.DecodeError
				assert.True(t, errors.As(err, &decodeErr))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(nil, nil)
			report, err := a.Analyze(context.Background(), tt.filename, []byte(tt.data))
			assert.Nil(t, report)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAnalyzeUsesCache(t *testing.T) {
	cache := newMemoryCache()
	a := NewAnalyzer(cache, nil)
	data := []byte("85\n90\n")

	first, err := a.Analyze(context.Background(), "a.csv", data)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := a.Analyze(context.Background(), "b.csv", data)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "second upload served from cache")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "b.csv", second.Filename)

	// Same bytes under another format are a different key.
	_, err = a.Analyze(context.Background(), "c.xlsx", data)
	assert.Error(t, err)
}

func TestAnalyzeCacheFailureFallsThrough(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	a := NewAnalyzer(cache, nil)

	report, err := a.Analyze(context.Background(), "a.csv", []byte("1\n2\n3"))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.Total())
}

func TestBuildEmpty(t *testing.T) {
	report := NewAnalyzer(nil, nil).Build(nil)
	assert.Equal(t, marks.Summary{}, report.Summary)
	assert.Equal(t, marks.Boundaries{}, report.Boundaries)
	assert.Equal(t, models.Statistics{}, report.Statistics)
	for _, s := range report.Slices {
		assert.Zero(t, s.Percent)
	}
}

func TestSlices(t *testing.T) {
	slices := Slices(marks.Summary{Q1: 1, Q2: 1, Q3: 1})
	require.Len(t, slices, 4)

	assert.Equal(t, models.Slice{
		Quartile: 1,
		Label:    "Q1 (0-25%)",
		Title:    "First Quartile",
		Count:    1,
		Percent:  33,
		Color:    "rgba(54, 162, 235, 0.7)",
	}, slices[0])
	assert.Equal(t, "Q4 (75-100%)", slices[3].Label)
	assert.Equal(t, "Fourth Quartile", slices[3].Title)
	assert.Equal(t, "rgba(255, 99, 132, 0.7)", slices[3].Color)
	assert.Equal(t, 0, slices[3].Percent)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 50, Percent(1, 2))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 13, Percent(1, 8))
	assert.Equal(t, 100, Percent(5, 5))
}
