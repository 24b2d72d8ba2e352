// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valpere/FAQScrapexter/internal/browser"
	"github.com/valpere/FAQScrapexter/internal/dom"
	"github.com/valpere/FAQScrapexter/internal/faq"
	"github.com/valpere/FAQScrapexter/internal/utils"
)

const (
	DefaultRunTimeout     = 5 * time.Minute
	DefaultOutputFormat   = "json"
	DefaultMetricsAddress = ":9090"
	DefaultLogLevel       = "info"
)

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*JobConfig, error) {
	if filename == "" {
		return nil, utils.NewError(utils.ErrCodeMissingConfig, "configuration filename cannot be empty").Build()
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		code := utils.ErrCodeInvalidConfig
		if os.IsNotExist(err) {
			code = utils.ErrCodeMissingConfig
		}
		return nil, utils.NewError(code, "failed to read configuration file").
			WithCause(err).
			WithContext("file", filename).
			WithUserMessage(fmt.Sprintf("Cannot read configuration file %s", filename)).
			Build()
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML, expands ${ENV} references, applies defaults and validates
func LoadFromBytes(data []byte) (*JobConfig, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, utils.NewError(utils.ErrCodeMissingConfig, "configuration data cannot be empty").Build()
	}

	expanded := expandEnvironmentVariables(string(data))

	var cfg JobConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "failed to parse YAML configuration").
			WithCause(err).
			Build()
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, utils.NewError(utils.ErrCodeInvalidConfig, "invalid configuration").
			WithCause(err).
			WithUserMessage(err.Error()).
			Build()
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader
func LoadFromReader(reader io.Reader) (*JobConfig, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// SaveToFile validates and writes configuration as YAML
func SaveToFile(cfg *JobConfig, filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	if err := SaveToWriter(cfg, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveToWriter validates and writes configuration as YAML
func SaveToWriter(cfg *JobConfig, writer io.Writer) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if writer == nil {
		return fmt.Errorf("writer cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}
	return encoder.Close()
}

// RestoreEnabled reports whether panels opened by the run are collapsed again.
func (c *JobConfig) RestoreEnabled() bool {
	return c.Activation.RestoreState == nil || *c.Activation.RestoreState
}

// PipelineOptions converts the job into extraction options for one run.
func (c *JobConfig) PipelineOptions(runID string) faq.Options {
	opts := faq.DefaultOptions()
	opts.RunID = runID
	opts.BaseURL = c.URL
	opts.Section = c.Section
	if c.SectionMatch != "" {
		opts.SectionMatch = c.SectionMatch
	}
	opts.MaxItems = c.MaxItems
	opts.Scope = faq.Scope{Selector: c.Scope.Selector, Label: c.Scope.Label}
	if len(c.ControlSelectors) > 0 {
		opts.ControlSelectors = append([]string(nil), c.ControlSelectors...)
	}
	if c.Activation.SettleTimeout > 0 {
		opts.SettleTimeout = c.Activation.SettleTimeout
	}
	opts.RestoreState = c.RestoreEnabled()
	opts.DismissLabels = append([]string(nil), c.DismissLabels...)
	return opts
}

// LogConfig converts the logging section for utils.NewLoggerFromConfig.
func (c *JobConfig) LogConfig() utils.LogConfig {
	lc := utils.DefaultLogConfig()
	lc.Level = c.Logging.Level
	lc.File = c.Logging.File
	lc.JSON = c.Logging.JSON
	if c.Logging.MaxSizeMB > 0 {
		lc.MaxSizeMB = c.Logging.MaxSizeMB
	}
	if c.Logging.MaxBackups > 0 {
		lc.MaxBackups = c.Logging.MaxBackups
	}
	return lc
}

// GenerateTemplate generates a starter job for a common accordion style:
// basic, details or aria. Unknown kinds fall back to basic.
func GenerateTemplate(kind string) JobConfig {
	var cfg JobConfig
	switch strings.ToLower(kind) {
	case "details":
		cfg = generateDetailsTemplate()
	case "aria":
		cfg = generateARIATemplate()
	default:
		cfg = generateBasicTemplate()
	}
	applyDefaults(&cfg)
	return cfg
}

// TemplateKinds lists the names accepted by GenerateTemplate
func TemplateKinds() []string {
	return []string{"basic", "details", "aria"}
}

// Helper functions

// fileExtensions maps file-backed output formats to their default extension
var fileExtensions = map[string]string{
	"json":   ".json",
	"csv":    ".csv",
	"yaml":   ".yaml",
	"xlsx":   ".xlsx",
	"sqlite": ".db",
}

// expandEnvironmentVariables substitutes ${VAR} references in the configuration
func expandEnvironmentVariables(content string) string {
	return os.ExpandEnv(content)
}

// applyDefaults applies default values to the configuration
func applyDefaults(cfg *JobConfig) {
	if cfg.SectionMatch == "" {
		cfg.SectionMatch = faq.DefaultSectionMatch
	}
	if len(cfg.ControlSelectors) == 0 {
		cfg.ControlSelectors = append([]string(nil), faq.DefaultControlSelectors...)
	}
	if cfg.Activation.SettleTimeout == 0 {
		cfg.Activation.SettleTimeout = faq.DefaultSettleTimeout
	}
	if cfg.Activation.PollInterval == 0 {
		cfg.Activation.PollInterval = dom.DefaultPollInterval
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}

	defaults := browser.DefaultBrowserConfig()
	if cfg.Browser == nil {
		cfg.Browser = defaults
	} else {
		if cfg.Browser.Timeout == 0 {
			cfg.Browser.Timeout = defaults.Timeout
		}
		if cfg.Browser.ViewportWidth == 0 {
			cfg.Browser.ViewportWidth = defaults.ViewportWidth
		}
		if cfg.Browser.ViewportHeight == 0 {
			cfg.Browser.ViewportHeight = defaults.ViewportHeight
		}
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultOutputFormat
	}
	if ext, ok := fileExtensions[cfg.Output.Format]; ok && cfg.Output.File == "" {
		cfg.Output.File = utils.OutputFileName(cfg.Name, ext)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Address == "" {
		cfg.Metrics.Address = DefaultMetricsAddress
	}
}

// Template generation functions

func generateBasicTemplate() JobConfig {
	return JobConfig{
		Name:     "faq_basic",
		URL:      "https://example.com/support/faq",
		MaxItems: 0,
		Output: OutputConfig{
			Format: "json",
			File:   "faq.json",
		},
	}
}

func generateDetailsTemplate() JobConfig {
	return JobConfig{
		Name:             "faq_details",
		URL:              "https://example.com/help",
		SectionMatch:     "FAQ",
		ControlSelectors: []string{"details > summary"},
		Output: OutputConfig{
			Format: "csv",
			File:   "faq.csv",
		},
	}
}

func generateARIATemplate() JobConfig {
	restore := true
	return JobConfig{
		Name:    "faq_aria",
		URL:     "https://example.com/ev/charging",
		Section: "EV FAQ",
		Scope: ScopeConfig{
			Label: "FAQ",
		},
		ControlSelectors: []string{"button[aria-controls]"},
		Activation: ActivationConfig{
			SettleTimeout: 3 * time.Second,
			PollInterval:  100 * time.Millisecond,
			RestoreState:  &restore,
		},
		Strategies: StrategiesConfig{
			Disabled: []string{faq.StrategyGlobal},
		},
		DismissLabels: append([]string(nil), faq.DefaultDismissLabels...),
		Output: OutputConfig{
			Format: "sqlite",
			File:   "faq.db",
			Table:  "faq_records",
		},
	}
}
