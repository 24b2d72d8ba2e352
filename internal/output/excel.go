// internal/output/excel.go
package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/valpere/FAQScrapexter/pkg/types"
)

// DefaultSheetName is used when no sheet name is configured
const DefaultSheetName = "FAQ"

// ExcelWriter writes records to an XLSX workbook, one row per record
type ExcelWriter struct {
	file      *excelize.File
	filePath  string
	sheetName string
	nextRow   int
}

// NewExcelWriter creates a new Excel writer
func NewExcelWriter(filePath, sheetName string) (*ExcelWriter, error) {
	if filePath == "" {
		return nil, fmt.Errorf("excel file path is required")
	}
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	file := excelize.NewFile()
	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	w := &ExcelWriter{
		file:      file,
		filePath:  filePath,
		sheetName: sheetName,
		nextRow:   1,
	}
	if err := w.writeHeader(); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

// writeHeader writes the bold, frozen header row
func (w *ExcelWriter) writeHeader() error {
	header := make([]interface{}, len(recordColumns))
	for i, c := range recordColumns {
		header[i] = c
	}
	if err := w.file.SetSheetRow(w.sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(recordColumns), 1)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(w.sheetName, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	if err := w.file.SetPanes(w.sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	w.nextRow = 2
	return nil
}

// Write appends records below the previous ones
func (w *ExcelWriter) Write(records []types.Record) error {
	for _, r := range records {
		row, err := recordRow(r)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}

		cell, err := excelize.CoordinatesToCellName(1, w.nextRow)
		if err != nil {
			return err
		}
		if err := w.file.SetSheetRow(w.sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", w.nextRow, err)
		}
		w.nextRow++
	}
	return nil
}

// Close saves the workbook
func (w *ExcelWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.SaveAs(w.filePath)
	closeErr := w.file.Close()
	w.file = nil
	if err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return closeErr
}
