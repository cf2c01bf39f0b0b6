package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"marks-quartile-server/ingest"
	"marks-quartile-server/marks"
	"marks-quartile-server/metrics"
	"marks-quartile-server/models"
)

// ReportCache stores finished reports by upload digest. Get returns nil, nil on a miss.
type ReportCache interface {
	Get(ctx context.Context, key string) (*models.Report, error)
	Set(ctx context.Context, key string, report *models.Report) error
}

// Analyzer runs uploads through extraction and classification.
type Analyzer struct {
	cache   ReportCache
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewAnalyzer creates an Analyzer. cache may be nil to disable caching.
func NewAnalyzer(cache ReportCache, recorder *metrics.Recorder) *Analyzer {
	return &Analyzer{
		cache:   cache,
		metrics: recorder,
		now:     time.Now,
	}
}

// Analyze extracts marks from one uploaded file and builds its report.
// Errors come from the ingest package and carry a user-facing message.
func (a *Analyzer) Analyze(ctx context.Context, filename string, data []byte) (*models.Report, error) {
	format, err := ingest.DetectFormat(filename)
	if err != nil {
		a.metrics.ObserveUpload("unknown", metrics.OutcomeUnsupported)
		return nil, err
	}

	key := cacheKey(format, data)
	if cached := a.lookup(ctx, key); cached != nil {
		a.metrics.ObserveUpload(string(format), metrics.OutcomeCached)
		cached.Filename = filename
		return cached, nil
	}

	up, err := ingest.FromBytes(ctx, filename, format, data)
	if err != nil {
		a.metrics.ObserveUpload(string(format), outcomeOf(err))
		return nil, err
	}

	report := a.Build(up.Marks)
	report.Filename = filename
	report.Format = string(format)

	a.metrics.ObserveUpload(string(format), metrics.OutcomeOK)
	a.metrics.ObserveMarks(report.Summary.Counts())
	a.store(ctx, key, report)

	slog.InfoContext(ctx, "upload analysed",
		slog.String("report_id", report.ID),
		slog.String("filename", filename),
		slog.String("format", string(format)),
		slog.Int("marks", report.Statistics.Count))

	return report, nil
}

// Build classifies an already extracted mark set.
func (a *Analyzer) Build(ms []float64) *models.Report {
	summary := marks.Classify(ms)
	bounds, _ := marks.ComputeBoundaries(ms)
	return &models.Report{
		ID:         uuid.NewString(),
		Summary:    summary,
		Boundaries: bounds,
		Statistics: Describe(ms),
		Slices:     Slices(summary),
		CreatedAt:  a.now().UTC(),
	}
}

// Describe computes descriptive statistics. An empty set yields zero values.
func Describe(ms []float64) models.Statistics {
	st := models.Statistics{Count: len(ms)}
	if len(ms) == 0 {
		return st
	}
	data := stats.Float64Data(ms)
	st.Min, _ = data.Min()
	st.Max, _ = data.Max()
	st.Mean, _ = data.Mean()
	st.Median, _ = data.Median()
	st.StandardDeviation, _ = data.StandardDeviation()
	return st
}

func (a *Analyzer) lookup(ctx context.Context, key string) *models.Report {
	if a.cache == nil {
		return nil
	}
	report, err := a.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "report cache lookup failed", slog.String("key", key), slog.Any("error", err))
		return nil
	}
	return report
}

func (a *Analyzer) store(ctx context.Context, key string, report *models.Report) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, report); err != nil {
		slog.WarnContext(ctx, "report cache store failed", slog.String("key", key), slog.Any("error", err))
	}
}

func cacheKey(format ingest.Format, data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", format, hex.EncodeToString(sum[:]))
}

func outcomeOf(err error) string {
	var decodeErr *ingest.DecodeError
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFileType):
		return metrics.OutcomeUnsupported
	case errors.As(err, &decodeErr):
		return metrics.OutcomeDecodeFailed
	case errors.Is(err, ingest.ErrNoMarks):
		return metrics.OutcomeNoMarks
	default:
		return metrics.OutcomeError
	}
}
