// internal/output/manager.go
package output

import (
	"fmt"
	"os"

	"github.com/valpere/FAQScrapexter/internal/config"
	"github.com/valpere/FAQScrapexter/internal/utils"
	"github.com/valpere/FAQScrapexter/pkg/types"
)

// StdoutFile selects standard output for the json format
const StdoutFile = "-"

// Recorder receives per-write outcomes. monitoring.Metrics implements it.
type Recorder interface {
	RecordOutput(format string, n int, err error)
}

// Manager opens the configured sink and writes one run's records to it
type Manager struct {
	config   config.OutputConfig
	format   OutputFormat
	runID    string
	logger   utils.Logger
	recorder Recorder
}

// NewManager creates a new output manager
func NewManager(cfg *config.OutputConfig, runID string, logger utils.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "output configuration is required").Build()
	}

	format := OutputFormat(cfg.Format)
	if !format.IsValid() {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "unsupported output format").
			WithContext("format", cfg.Format).
			Build()
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	return &Manager{
		config: *cfg,
		format: format,
		runID:  runID,
		logger: logger.WithField("component", "output").WithField("format", cfg.Format),
	}, nil
}

// SetRecorder attaches an outcome recorder
func (m *Manager) SetRecorder(r Recorder) {
	m.recorder = r
}

// Format returns the configured format
func (m *Manager) Format() OutputFormat {
	return m.format
}

// GetWriter returns the appropriate writer for the configured format
func (m *Manager) GetWriter() (Writer, error) {
	c := m.config
	switch m.format {
	case FormatJSON:
		if c.File == StdoutFile {
			return NewJSONWriterTo(os.Stdout), nil
		}
		return NewJSONWriter(c.File)
	case FormatCSV:
		return NewCSVWriter(c.File)
	case FormatYAML:
		return NewYAMLWriter(c.File)
	case FormatXLSX:
		return NewExcelWriter(c.File, c.Sheet)
	case FormatSQLite:
		return NewSQLWriter(SQLOptions{Format: m.format, DSN: c.File, Table: c.Table, RunID: m.runID, Timeout: c.Timeout})
	case FormatMySQL, FormatPostgreSQL:
		return NewSQLWriter(SQLOptions{Format: m.format, DSN: c.DSN, Table: c.Table, RunID: m.runID, Timeout: c.Timeout})
	case FormatMongoDB:
		return NewMongoDBWriter(MongoDBOptions{
			ConnectionString: c.DSN,
			Database:         c.Database,
			Collection:       c.Collection,
			RunID:            m.runID,
			Timeout:          c.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported output format: %s", m.format)
	}
}

// Write writes records using the configured format. Failures are
// StructuredErrors coded OUTPUT_FAILED for files and DATABASE_ERROR for databases.
func (m *Manager) Write(records []types.Record) (err error) {
	defer func() {
		if m.recorder != nil {
			m.recorder.RecordOutput(string(m.format), len(records), err)
		}
	}()

	writer, err := m.GetWriter()
	if err != nil {
		return m.wrap("failed to open output", err)
	}

	if err := writer.Write(records); err != nil {
		writer.Close()
		return m.wrap("failed to write records", err)
	}
	if err := writer.Close(); err != nil {
		return m.wrap("failed to finalize output", err)
	}

	m.logger.WithField("records", len(records)).Infof("wrote %d record(s) to %s", len(records), m.target())
	return nil
}

func (m *Manager) target() string {
	if m.format.IsDatabase() && m.format != FormatSQLite {
		return string(m.format)
	}
	if m.config.File == StdoutFile {
		return "stdout"
	}
	return m.config.File
}

func (m *Manager) wrap(msg string, err error) error {
	code := utils.ErrCodeOutputFailed
	if m.format.IsDatabase() {
		code = utils.ErrCodeDatabaseError
	}
	return utils.NewError(code, msg).
		WithCause(err).
		WithContext("format", string(m.format)).
		WithContext("target", m.target()).
		WithUserMessage(fmt.Sprintf("Could not write results as %s to %s", m.format, m.target())).
		Build()
}
