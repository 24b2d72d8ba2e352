// internal/config/types.go

// Package config provides the job configuration for FAQ extraction runs:
// the target page, accordion discovery settings, activation timing, the
// browser, the record sink, logging and metrics.
package config

import (
	"time"

	"github.com/valpere/FAQScrapexter/internal/browser"
)

// JobConfig represents one extraction job loaded from YAML.
type JobConfig struct {
	// Name identifies this job in logs and metrics
	Name string `yaml:"name" json:"name"`

	// URL is the page to open in browser mode. In static mode it is the
	// base URL used to absolutize links.
	URL string `yaml:"url" json:"url"`

	// Section is a fixed section label. When empty, each record takes the
	// nearest preceding heading containing SectionMatch.
	Section      string `yaml:"section,omitempty" json:"section,omitempty"`
	SectionMatch string `yaml:"section_match,omitempty" json:"section_match,omitempty"`

	Scope            ScopeConfig `yaml:"scope,omitempty" json:"scope,omitempty"`
	ControlSelectors []string    `yaml:"control_selectors,omitempty" json:"control_selectors,omitempty"`

	// MaxItems caps emitted records; zero means unlimited
	MaxItems int `yaml:"max_items,omitempty" json:"max_items,omitempty"`

	Activation ActivationConfig `yaml:"activation" json:"activation"`

	// RunTimeout bounds the whole run; records found before it fires are kept
	RunTimeout time.Duration `yaml:"run_timeout" json:"run_timeout"`

	Strategies    StrategiesConfig `yaml:"strategies,omitempty" json:"strategies,omitempty"`
	DismissLabels []string         `yaml:"dismiss_labels,omitempty" json:"dismiss_labels,omitempty"`

	Browser *browser.BrowserConfig `yaml:"browser,omitempty" json:"browser,omitempty"`
	Output  OutputConfig           `yaml:"output" json:"output"`
	Logging LoggingConfig          `yaml:"logging" json:"logging"`
	Metrics MetricsConfig          `yaml:"metrics" json:"metrics"`
}

// ScopeConfig restricts discovery to one container, by selector or by label text.
type ScopeConfig struct {
	Selector string `yaml:"selector,omitempty" json:"selector,omitempty"`
	Label    string `yaml:"label,omitempty" json:"label,omitempty"`
}

// ActivationConfig controls how long to wait after a click and whether to collapse again.
type ActivationConfig struct {
	SettleTimeout time.Duration `yaml:"settle_timeout" json:"settle_timeout"`
	PollInterval  time.Duration `yaml:"poll_interval" json:"poll_interval"`
	// RestoreState collapses panels the run opened. A nil value means true.
	RestoreState *bool `yaml:"restore_state,omitempty" json:"restore_state,omitempty"`
}

// StrategiesConfig lists panel resolution strategies to skip.
type StrategiesConfig struct {
	Disabled []string `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// OutputConfig defines where records are written.
type OutputConfig struct {
	// Format is one of json, csv, yaml, xlsx, sqlite, mysql, postgresql, mongodb
	Format string `yaml:"format" json:"format"`

	// File is the target path for file formats and the database file for sqlite.
	// For json, "-" means standard output.
	File string `yaml:"file,omitempty" json:"file,omitempty"`

	// DSN is the connection string for mysql, postgresql and mongodb
	DSN string `yaml:"dsn,omitempty" json:"dsn,omitempty"`

	Table      string        `yaml:"table,omitempty" json:"table,omitempty"`
	Database   string        `yaml:"database,omitempty" json:"database,omitempty"`
	Collection string        `yaml:"collection,omitempty" json:"collection,omitempty"`
	Sheet      string        `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// LoggingConfig defines log level and optional rotated log file.
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file,omitempty" json:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty" json:"max_backups,omitempty"`
	JSON       bool   `yaml:"json,omitempty" json:"json,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint served during a run.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Address   string `yaml:"address,omitempty" json:"address,omitempty"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
}
