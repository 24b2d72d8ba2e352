// internal/config/config_test.go
package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valpere/FAQScrapexter/internal/faq"
	"github.com/valpere/FAQScrapexter/internal/utils"
)

func TestLoadFromBytes(t *testing.T) {
	configYAML := `
name: "ev_faq"
url: "https://example.com/ev"
section: "EV FAQ"
max_items: 25
scope:
  label: "전기차 FAQ"
activation:
  settle_timeout: 2s
  restore_state: false
output:
  format: "csv"
  file: "faq.csv"
`

	cfg, err := LoadFromBytes([]byte(configYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if cfg.Name != "ev_faq" {
		t.Errorf("expected name 'ev_faq', got %q", cfg.Name)
	}
	if cfg.Activation.SettleTimeout != 2*time.Second {
		t.Errorf("expected settle timeout 2s, got %v", cfg.Activation.SettleTimeout)
	}
	if cfg.RestoreEnabled() {
		t.Error("restore_state false should disable restore")
	}
	if cfg.Scope.Label != "전기차 FAQ" {
		t.Errorf("unexpected scope label %q", cfg.Scope.Label)
	}
}

func TestLoadFromBytes_Defaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("name: d\nurl: https://example.com/faq\n"))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if cfg.SectionMatch != faq.DefaultSectionMatch {
		t.Errorf("expected section_match %q, got %q", faq.DefaultSectionMatch, cfg.SectionMatch)
	}
	if len(cfg.ControlSelectors) != len(faq.DefaultControlSelectors) {
		t.Errorf("expected default control selectors, got %v", cfg.ControlSelectors)
	}
	if cfg.Activation.SettleTimeout != faq.DefaultSettleTimeout {
		t.Errorf("unexpected settle timeout %v", cfg.Activation.SettleTimeout)
	}
	if cfg.RunTimeout != DefaultRunTimeout {
		t.Errorf("unexpected run timeout %v", cfg.RunTimeout)
	}
	if !cfg.RestoreEnabled() {
		t.Error("restore should default to enabled")
	}
	if cfg.Output.Format != "json" || cfg.Output.File != "d.json" {
		t.Errorf("unexpected output defaults %+v", cfg.Output)
	}
	if cfg.Browser == nil || !cfg.Browser.Headless {
		t.Errorf("expected default headless browser, got %+v", cfg.Browser)
	}
}

func TestLoadFromBytes_ExpandsEnvironment(t *testing.T) {
	t.Setenv("FAQ_TEST_HOST", "support.example.com")

	cfg, err := LoadFromBytes([]byte("name: env\nurl: https://${FAQ_TEST_HOST}/faq\n"))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	if cfg.URL != "https://support.example.com/faq" {
		t.Errorf("environment not expanded: %q", cfg.URL)
	}
}

func TestLoadFromBytes_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code utils.ErrorCode
	}{
		{"empty", "", utils.ErrCodeMissingConfig},
		{"malformed", "name: [unclosed", utils.ErrCodeInvalidConfig},
		{"missing url", "name: x\n", utils.ErrCodeInvalidConfig},
		{"bad selector", "name: x\nurl: https://e.com\ncontrol_selectors: ['button[']\n", utils.ErrCodeInvalidConfig},
		{"unknown strategy", "name: x\nurl: https://e.com\nstrategies:\n  disabled: [telepathy]\n", utils.ErrCodeInvalidConfig},
		{"bad format", "name: x\nurl: https://e.com\noutput:\n  format: pdf\n", utils.ErrCodeInvalidConfig},
		{"dsn missing", "name: x\nurl: https://e.com\noutput:\n  format: mysql\n", utils.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			code, ok := utils.CodeOf(err)
			if !ok || code != tt.code {
				t.Errorf("expected code %s, got %s (%v)", tt.code, code, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte("name: file_job\nurl: https://example.com\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Name != "file_job" {
		t.Errorf("expected name 'file_job', got %q", cfg.Name)
	}

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if code, _ := utils.CodeOf(err); code != utils.ErrCodeMissingConfig {
		t.Errorf("expected MISSING_CONFIG for absent file, got %v", err)
	}
}

func TestGenerateTemplate(t *testing.T) {
	for _, kind := range TemplateKinds() {
		t.Run(kind, func(t *testing.T) {
			cfg := GenerateTemplate(kind)
			if err := cfg.Validate(); err != nil {
				t.Fatalf("template %s should be valid: %v", kind, err)
			}

			var buf bytes.Buffer
			if err := SaveToWriter(&cfg, &buf); err != nil {
				t.Fatalf("SaveToWriter failed: %v", err)
			}
			back, err := LoadFromBytes(buf.Bytes())
			if err != nil {
				t.Fatalf("saved template does not load: %v\n%s", err, buf.String())
			}
			if back.Name != cfg.Name || back.Output.Format != cfg.Output.Format {
				t.Errorf("template changed on reload: %+v", back)
			}
		})
	}

	if GenerateTemplate("nonsense").Name != "faq_basic" {
		t.Error("unknown template kind should fall back to basic")
	}
}

func TestSaveToFile(t *testing.T) {
	cfg := GenerateTemplate("details")
	path := filepath.Join(t.TempDir(), "nested", "job.yaml")

	if err := SaveToFile(&cfg, path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if !strings.Contains(string(data), "details > summary") {
		t.Errorf("expected control selector in output:\n%s", data)
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := GenerateTemplate("aria")
	opts := cfg.PipelineOptions("run-1")

	if opts.RunID != "run-1" || opts.BaseURL != cfg.URL {
		t.Errorf("unexpected identity fields: %+v", opts)
	}
	if opts.Section != "EV FAQ" || opts.Scope.Label != "FAQ" {
		t.Errorf("unexpected section/scope: %q %+v", opts.Section, opts.Scope)
	}
	if len(opts.ControlSelectors) != 1 || opts.ControlSelectors[0] != "button[aria-controls]" {
		t.Errorf("unexpected selectors %v", opts.ControlSelectors)
	}
	if !opts.RestoreState {
		t.Error("expected restore enabled")
	}
	if len(opts.DismissLabels) != len(faq.DefaultDismissLabels) || opts.DismissLabels[0] != faq.DefaultDismissLabels[0] {
		t.Errorf("expected default dismiss labels, got %v", opts.DismissLabels)
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := JobConfig{
		MaxItems: -1,
		Output:   OutputConfig{Format: "mongodb"},
	}

	err := cfg.Validate()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T %v", err, err)
	}

	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	for _, want := range []string{"name", "url", "max_items", "output.dsn", "output.database"} {
		if !fields[want] {
			t.Errorf("missing validation error for %s in %v", want, verrs)
		}
	}
}

func TestCheck_Warnings(t *testing.T) {
	cfg := GenerateTemplate("basic")
	cfg.URL = "http://example.com/faq"
	cfg.Scope = ScopeConfig{Selector: "#faq", Label: "FAQ"}

	result := cfg.Check()
	if !result.Valid {
		t.Fatalf("expected valid config, got %v", result.Errors)
	}
	if len(result.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", result.Warnings)
	}
}

func TestLogConfig(t *testing.T) {
	cfg := GenerateTemplate("basic")
	cfg.Logging = LoggingConfig{Level: "debug", File: "run.log", MaxSizeMB: 5}

	lc := cfg.LogConfig()
	if lc.Level != "debug" || lc.File != "run.log" || lc.MaxSizeMB != 5 {
		t.Errorf("unexpected log config %+v", lc)
	}
	if lc.MaxBackups != utils.DefaultLogConfig().MaxBackups {
		t.Errorf("expected default backups, got %d", lc.MaxBackups)
	}
}
