package marks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		marks []float64
		want  Summary
	}{
		{"empty", nil, Summary{}},
		{"single", []float64{42}, Summary{Q1: 1}},
		{"all equal", []float64{7, 7, 7, 7, 7}, Summary{Q1: 5}},
		{"two extremes", []float64{0, 100}, Summary{Q1: 1, Q4: 1}},
		{
			name:  "ten evenly spaced",
			marks: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			want:  Summary{Q1: 3, Q2: 2, Q3: 2, Q4: 3},
		},
		{
			name:  "marks on boundaries go low",
			marks: []float64{0, 25, 50, 75, 100},
			want:  Summary{Q1: 2, Q2: 1, Q3: 1, Q4: 1},
		},
		{
			name:  "unordered with negatives",
			marks: []float64{-10, 30, -10, 10, 29},
			want:  Summary{Q1: 2, Q2: 1, Q3: 0, Q4: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.marks)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.marks), got.Total())
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	in := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	snapshot := append([]float64(nil), in...)

	first := Classify(in)
	second := Classify(in)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, in, "input must not be reordered")
}

func TestClassifySumsToLength(t *testing.T) {
	sets := [][]float64{
		{1},
		{1, 2},
		{5, 5, 6},
		{0.1, 0.2, 0.3, 1000},
		{-1e6, 0, 1e6, 3.3, 3.3, 3.3},
	}
	for _, set := range sets {
		assert.Equal(t, len(set), Classify(set).Total())
	}
}

func TestComputeBoundaries(t *testing.T) {
	_, ok := ComputeBoundaries(nil)
	assert.False(t, ok)

	b, ok := ComputeBoundaries([]float64{100, 10, 55})
	require.True(t, ok)
	assert.Equal(t, Boundaries{Min: 10, Max: 100, Range: 90, B1: 32.5, B2: 55, B3: 77.5}, b)

	assert.Equal(t, 1, b.Quartile(10))
	assert.Equal(t, 1, b.Quartile(32.5))
	assert.Equal(t, 2, b.Quartile(55))
	assert.Equal(t, 3, b.Quartile(77.5))
	assert.Equal(t, 4, b.Quartile(100))

	flat, ok := ComputeBoundaries([]float64{4, 4})
	require.True(t, ok)
	assert.Equal(t, 0.0, flat.Range)
	assert.Equal(t, 1, flat.Quartile(4))
}

func TestSummaryCounts(t *testing.T) {
	s := Summary{Q1: 1, Q2: 2, Q3: 3, Q4: 4}
	assert.Equal(t, [4]int{1, 2, 3, 4}, s.Counts())
	assert.Equal(t, 10, s.Total())
}
