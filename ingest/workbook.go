package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"marks-quartile-server/marks"
)

var errNoSheets = errors.New("workbook does not contain any sheets")

// decodeWorkbook returns the data rows of the first sheet. The first non-blank
// row holds the column headers and is not returned.
func decodeWorkbook(format Format, data []byte) ([]marks.Row, error) {
	var (
		cells [][]string
		err   error
	)
	switch format {
	case FormatXLSX:
		cells, err = readXLSX(data)
	case FormatXLS:
		cells, err = readXLS(data)
	default:
		return nil, fmt.Errorf("format %s is not a workbook", format)
	}
	if err != nil {
		return nil, err
	}
	return dropHeader(cells), nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close excel file", slog.Any("error", err))
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errNoSheets
	}

	// Raw values keep numeric cells free of display formatting such as
	// thousands separators.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}
	if err := restoreBooleans(f, sheetName, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// restoreBooleans rewrites boolean cells, which raw values report as "1" or
// "0", to TRUE/FALSE so they are never read as marks.
func restoreBooleans(f *excelize.File, sheetName string, rows [][]string) error {
	for r, cols := range rows {
		for c, v := range cols {
			if v != "0" && v != "1" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			cellType, err := f.GetCellType(sheetName, cell)
			if err != nil {
				return fmt.Errorf("failed to get type of cell %s: %w", cell, err)
			}
			if cellType == excelize.CellTypeBool {
				cols[c] = boolText[v]
			}
		}
	}
	return nil
}

var boolText = map[string]string{"0": "FALSE", "1": "TRUE"}

func readXLS(data []byte) (rows [][]string, err error) {
	// The legacy BIFF reader panics on some truncated files.
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("failed to read xls file: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls file: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errNoSheets
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errNoSheets
	}

	rows = make([][]string, 0, int(sheet.MaxRow)+1)
	for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
		row := xlsRow(sheet, rowID)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cols := make([]string, 0, row.LastCol()+1)
		for colID := 0; colID <= row.LastCol(); colID++ {
			cols = append(cols, row.Col(colID))
		}
		rows = append(rows, cols)
	}
	return rows, nil
}

// xlsRow returns nil for rows the file does not store. The reader itself
// dereferences a missing row and panics.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func dropHeader(cells [][]string) []marks.Row {
	rows := make([]marks.Row, 0, len(cells))
	headerSeen := false
	for _, cols := range cells {
		if !headerSeen {
			if !isBlank(cols) {
				headerSeen = true
			}
			continue
		}
		row := make(marks.Row, len(cols))
		for i, c := range cols {
			row[i] = c
		}
		rows = append(rows, row)
	}
	return rows
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
