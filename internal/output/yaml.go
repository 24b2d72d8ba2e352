// internal/output/yaml.go
package output

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/valpere/FAQScrapexter/pkg/types"
)

// YAMLWriter writes records as a single YAML sequence
type YAMLWriter struct {
	file    *os.File
	encoder *yaml.Encoder
}

// NewYAMLWriter creates a new YAML writer
func NewYAMLWriter(filename string) (*YAMLWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)

	return &YAMLWriter{file: file, encoder: encoder}, nil
}

// Write encodes records as one YAML document
func (w *YAMLWriter) Write(records []types.Record) error {
	normalized := make([]types.Record, len(records))
	for i, r := range records {
		normalized[i] = r.Normalized()
	}
	if err := w.encoder.Encode(normalized); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

// Close flushes and closes the YAML writer
func (w *YAMLWriter) Close() error {
	if w.file == nil {
		return nil
	}
	encErr := w.encoder.Close()
	err := w.file.Close()
	w.file = nil
	if encErr != nil {
		return encErr
	}
	return err
}
