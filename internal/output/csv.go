// internal/output/csv.go
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/valpere/FAQScrapexter/pkg/types"
)

// CSVWriter writes one row per record. Links and images are JSON-encoded cells.
type CSVWriter struct {
	filename string
	file     *os.File
	writer   *csv.Writer
	header   bool
}

// NewCSVWriter creates a new CSV writer
func NewCSVWriter(filename string) (*CSVWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	// BOM so spreadsheet tools detect UTF-8
	if _, err := file.WriteString("\ufeff"); err != nil {
		file.Close()
		return nil, err
	}

	return &CSVWriter{
		filename: filename,
		file:     file,
		writer:   csv.NewWriter(file),
	}, nil
}

// Write writes records, emitting the header before the first batch
func (w *CSVWriter) Write(records []types.Record) error {
	if !w.header {
		if err := w.writer.Write(recordColumns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		w.header = true
	}

	for _, r := range records {
		row, err := recordRow(r)
		if err != nil {
			return err
		}
		if err := w.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	w.writer.Flush()
	return w.writer.Error()
}

// Close closes the CSV writer
func (w *CSVWriter) Close() error {
	if w.writer != nil {
		w.writer.Flush()
		w.writer = nil
	}
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

// recordRow flattens a record in recordColumns order.
func recordRow(r types.Record) ([]string, error) {
	links, images, err := encodeRefs(r)
	if err != nil {
		return nil, err
	}
	return []string{r.SourceURL, r.Section, r.Question, r.AnswerText, r.AnswerHTML, links, images}, nil
}

// encodeRefs renders links and images as JSON arrays, never null.
func encodeRefs(r types.Record) (string, string, error) {
	r = r.Normalized()
	links, err := json.Marshal(r.Links)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode links: %w", err)
	}
	images, err := json.Marshal(r.Images)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode images: %w", err)
	}
	return string(links), string(images), nil
}
