package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"marks-quartile-server/marks"
)

// Format identifies which decode path an upload takes.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// IsWorkbook reports whether the format is decoded into rows rather than text.
func (f Format) IsWorkbook() bool {
	return f == FormatXLSX || f == FormatXLS
}

var (
	// ErrUnsupportedFileType is returned for any extension other than csv, xlsx or xls.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrNoMarks is wrapped by NoMarksError when a file yields no numeric mark.
	ErrNoMarks = errors.New("no valid marks found")
)

// DecodeError reports that an upload's bytes could not be turned into rows or text.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s upload: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NoMarksError is returned when extraction succeeded but produced no marks.
type NoMarksError struct {
	Format Format
}

func (e *NoMarksError) Error() string {
	return fmt.Sprintf("no valid marks found in %s upload", e.Format)
}

func (e *NoMarksError) Unwrap() error { return ErrNoMarks }

// Message returns the text shown to the person who uploaded the file.
func Message(err error) string {
	var decodeErr *DecodeError
	var noMarksErr *NoMarksError
	switch {
	case errors.Is(err, ErrUnsupportedFileType):
		return "Please upload a CSV or Excel file"
	case errors.As(err, &decodeErr):
		if decodeErr.Format.IsWorkbook() {
			return "Error processing Excel file. Please check the format."
		}
		return "Error processing CSV file. Please check the format."
	case errors.As(err, &noMarksErr):
		if noMarksErr.Format.IsWorkbook() {
			return "No valid marks found in the file"
		}
		return "No valid marks found in the CSV file"
	default:
		return "Error processing file"
	}
}

// DetectFormat maps a filename to its decode path by extension.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch Format(ext) {
	case FormatCSV, FormatXLSX, FormatXLS:
		return Format(ext), nil
	default:
		return "", ErrUnsupportedFileType
	}
}

// Upload is the result of reading one file.
type Upload struct {
	Filename string
	Format   Format
	Marks    []float64
}

// FromBytes extracts marks from an already read upload of a known format.
func FromBytes(ctx context.Context, filename string, format Format, data []byte) (*Upload, error) {
	var ms []float64
	switch format {
	case FormatCSV:
		text, err := decodeText(data)
		if err != nil {
			return nil, &DecodeError{Format: format, Err: err}
		}
		ms = marks.ExtractText(text)
	case FormatXLSX, FormatXLS:
		rows, err := decodeWorkbook(format, data)
		if err != nil {
			slog.WarnContext(ctx, "workbook decode failed",
				slog.String("filename", filename),
				slog.String("format", string(format)),
				slog.Any("error", err))
			return nil, &DecodeError{Format: format, Err: err}
		}
		ms = marks.ExtractRows(rows)
	default:
		return nil, ErrUnsupportedFileType
	}

	if len(ms) == 0 {
		return nil, &NoMarksError{Format: format}
	}

	slog.DebugContext(ctx, "marks extracted",
		slog.String("filename", filename),
		slog.String("format", string(format)),
		slog.Int("count", len(ms)))

	return &Upload{Filename: filename, Format: format, Marks: ms}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText turns a CSV upload into text. Invalid UTF-8 is replaced rather
// than rejected; NUL bytes mean the file is binary.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(data, 0) >= 0 {
		return "", errors.New("content is binary, not delimited text")
	}
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}
	return string(data), nil
}
