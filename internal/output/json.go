// internal/output/json.go
package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/valpere/FAQScrapexter/pkg/types"
)

// JSONWriter writes records as one JSON array: UTF-8, HTML characters and
// non-ASCII text left unescaped, two-space indentation.
type JSONWriter struct {
	out  io.Writer
	file *os.File
}

// NewJSONWriter creates a JSON writer for filename
func NewJSONWriter(filename string) (*JSONWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{out: file, file: file}, nil
}

// NewJSONWriterTo creates a JSON writer over w. Close does not close w.
func NewJSONWriterTo(w io.Writer) *JSONWriter {
	return &JSONWriter{out: w}
}

// Write encodes records. A nil or empty slice is written as [].
func (w *JSONWriter) Write(records []types.Record) error {
	normalized := make([]types.Record, len(records))
	for i, r := range records {
		normalized[i] = r.Normalized()
	}

	encoder := json.NewEncoder(w.out)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(normalized)
}

// Close closes the JSON writer
func (w *JSONWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
