package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"marks-quartile-server/analysis"
	"marks-quartile-server/chart"
	"marks-quartile-server/config"
	"marks-quartile-server/ingest"
	"marks-quartile-server/marks"
	"marks-quartile-server/models"
)

// Error codes returned in the "error" field of failed responses
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeMissingFile         = "MISSING_FILE"
	CodeFileTooLarge        = "FILE_TOO_LARGE"
	CodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	CodeDecodeFailed        = "DECODE_FAILED"
	CodeNoMarksFound        = "NO_MARKS_FOUND"
	CodeChartFailed         = "CHART_FAILED"
	CodeInternal            = "INTERNAL_ERROR"
)

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Analyzer *analysis.Analyzer
	Chart    config.ChartConfig
	MaxBytes int64
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(analyzer *analysis.Analyzer, chartCfg config.ChartConfig, maxUploadBytes int64) *APIHandler {
	return &APIHandler{
		Analyzer: analyzer,
		Chart:    chartCfg,
		MaxBytes: maxUploadBytes,
	}
}

// RegisterRoutes mounts the API under /api
func (h *APIHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	{
		// Upload routes
		api.POST("/analyze", h.Analyze)
		api.POST("/analyze/chart", h.AnalyzeChart)

		// Core routes on already extracted data
		api.POST("/extract", h.Extract)
		api.POST("/classify", h.Classify)

		api.GET("/ping", PingHandler)
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}

// --- Upload Handlers ---

// Analyze handles POST /api/analyze
func (h *APIHandler) Analyze(c *gin.Context) {
	report, ok := h.analyzeUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// AnalyzeChart handles POST /api/analyze/chart?format=png|svg
func (h *APIHandler) AnalyzeChart(c *gin.Context) {
	format, err := chart.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	report, ok := h.analyzeUpload(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err = chart.RenderPie(&buf, report.Slices, chart.Options{
		Width:  h.Chart.Width,
		Height: h.Chart.Height,
		Title:  report.Filename,
		Format: format,
	})
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "chart render failed", slog.String("report_id", report.ID), slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeChartFailed, "Failed to render chart")
		return
	}

	c.Header("X-Report-ID", report.ID)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// analyzeUpload reads the "file" form field and runs it through the analyzer.
// It writes the error response itself and reports false on failure.
func (h *APIHandler) analyzeUpload(c *gin.Context) (*models.Report, bool) {
	ctx := c.Request.Context()
	if h.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBytes)
	}

	// Get file from form data
	file, header, err := c.Request.FormFile("file") // "file" is the name attribute in the form
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, CodeFileTooLarge, "Uploaded file is too large")
			return nil, false
		}
		slog.WarnContext(ctx, "error getting form file", slog.Any("error", err))
		respondError(c, http.StatusBadRequest, CodeMissingFile, "Error retrieving uploaded file: "+err.Error())
		return nil, false
	}
	defer file.Close()

	slog.InfoContext(ctx, "received file upload", slog.String("filename", header.Filename), slog.Int64("size", header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		slog.ErrorContext(ctx, "error reading uploaded file", slog.String("filename", header.Filename), slog.Any("error", err))
		respondError(c, http.StatusBadRequest, CodeMissingFile, "Error reading uploaded file")
		return nil, false
	}

	report, err := h.Analyzer.Analyze(ctx, header.Filename, data)
	if err != nil {
		h.fail(c, header.Filename, err)
		return nil, false
	}
	return report, true
}

// fail maps ingest errors to a status code and the user-facing message
func (h *APIHandler) fail(c *gin.Context, filename string, err error) {
	var (
		status int
		code   string
	)
	var decodeErr *ingest.DecodeError
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFileType):
		status, code = http.StatusUnsupportedMediaType, CodeUnsupportedFileType
	case errors.As(err, &decodeErr):
		status, code = http.StatusUnprocessableEntity, CodeDecodeFailed
	case errors.Is(err, ingest.ErrNoMarks):
		status, code = http.StatusUnprocessableEntity, CodeNoMarksFound
	default:
		status, code = http.StatusInternalServerError, CodeInternal
	}

	slog.WarnContext(c.Request.Context(), "upload rejected",
		slog.String("filename", filename),
		slog.String("error_code", code),
		slog.Any("error", err))
	respondError(c, status, code, ingest.Message(err))
}

// --- Core Handlers ---

// Extract handles POST /api/extract
func (h *APIHandler) Extract(c *gin.Context) {
	var req models.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	var ms []float64
	switch {
	case req.Text != nil && req.Rows != nil:
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Provide either text or rows, not both")
		return
	case req.Text != nil:
		ms = marks.ExtractText(*req.Text)
	case req.Rows != nil:
		rows := make([]marks.Row, len(req.Rows))
		for i, r := range req.Rows {
			rows[i] = marks.Row(r)
		}
		ms = marks.ExtractRows(rows)
	default:
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "One of text or rows is required")
		return
	}

	c.JSON(http.StatusOK, models.ExtractResponse{Marks: ms, Count: len(ms)})
}

// Classify handles POST /api/classify
func (h *APIHandler) Classify(c *gin.Context) {
	var req models.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	summary := marks.Classify(req.Marks)
	resp := models.ClassifyResponse{
		Summary: summary,
		Slices:  analysis.Slices(summary),
	}
	if b, ok := marks.ComputeBoundaries(req.Marks); ok {
		resp.Boundaries = &b
	}
	c.JSON(http.StatusOK, resp)
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
