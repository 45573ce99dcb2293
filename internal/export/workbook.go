package export

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/lox/inspectform/internal/sheet"
)

const (
	SheetName = "点検表"

	// LabelWidthFloor is the minimum width of the label column.
	LabelWidthFloor = 12.0
	ValueWidth      = 14.0
	valueColumns    = 5
	maxColumnWidth  = 255.0
)

// Filename returns the export file name for an inspection date.
func Filename(date string) string {
	return "inspection_" + date + ".xlsx"
}

// WriteWorkbook encodes rows as a single-sheet workbook and writes it to w.
func WriteWorkbook(w io.Writer, rows []sheet.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := []string(row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", LabelWidth(rows)); err != nil {
		return fmt.Errorf("set label width: %w", err)
	}
	last, err := excelize.ColumnNumberToName(1 + valueColumns)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", last, ValueWidth); err != nil {
		return fmt.Errorf("set value widths: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Workbook returns the encoded workbook bytes.
func Workbook(rows []sheet.Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LabelWidth sizes the label column to the longest first cell. Wide
// characters count double.
func LabelWidth(rows []sheet.Row) float64 {
	width := LabelWidthFloor
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if w := displayWidth(row[0]) + 2; w > width {
			width = w
		}
	}
	if width > maxColumnWidth {
		width = maxColumnWidth
	}
	return width
}

func displayWidth(s string) float64 {
	var w float64
	for _, r := range s {
		if utf8.RuneLen(r) > 1 {
			w += 2
		} else {
			w++
		}
	}
	return w
}
