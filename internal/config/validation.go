// internal/config/validation.go
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/valpere/FAQScrapexter/internal/dom"
	"github.com/valpere/FAQScrapexter/internal/faq"
)

// ValidationError represents a single invalid configuration field
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Value == "" {
		return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	return fmt.Sprintf("%s: %s (got %q)", ve.Field, ve.Message, ve.Value)
}

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`
}

// ValidationErrors aggregates every problem found in one pass
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation error(s): %s", len(ve), strings.Join(msgs, "; "))
}

var validOutputFormats = map[string]bool{
	"json": true, "csv": true, "yaml": true, "xlsx": true,
	"sqlite": true, "mysql": true, "postgresql": true, "mongodb": true,
}

// Validate checks the job and returns ValidationErrors listing every problem
func (c *JobConfig) Validate() error {
	result := c.Check()
	if len(result.Errors) > 0 {
		return ValidationErrors(result.Errors)
	}
	return nil
}

// Check runs every validation rule and also collects warnings
func (c *JobConfig) Check() *ValidationResult {
	result := &ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]string, 0),
	}

	c.validateBasicFields(result)
	c.validateURL(result)
	c.validateSelectors(result)
	c.validateActivation(result)
	c.validateStrategies(result)
	c.validateOutput(result)

	result.Valid = len(result.Errors) == 0
	return result
}

func (r *ValidationResult) add(field, value, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
}

// validateBasicFields checks required basic fields
func (c *JobConfig) validateBasicFields(result *ValidationResult) {
	if c.Name == "" {
		result.add("name", "", "job name is required")
	}
	if c.URL == "" {
		result.add("url", "", "page URL is required")
	}
	if c.MaxItems < 0 {
		result.add("max_items", fmt.Sprint(c.MaxItems), "must be zero (unlimited) or positive")
	}
	if c.RunTimeout < 0 {
		result.add("run_timeout", c.RunTimeout.String(), "must not be negative")
	}
}

// validateURL checks URL format
func (c *JobConfig) validateURL(result *ValidationResult) {
	if c.URL == "" {
		return
	}

	parsed, err := url.Parse(c.URL)
	if err != nil {
		result.add("url", c.URL, fmt.Sprintf("invalid URL format: %v", err))
		return
	}

	switch parsed.Scheme {
	case "http", "https":
		if parsed.Host == "" {
			result.add("url", c.URL, "URL must include hostname")
		}
	case "file", "data":
	case "":
		result.add("url", c.URL, "URL must include protocol (http:// or https://)")
	default:
		result.add("url", c.URL, fmt.Sprintf("unsupported URL scheme %q", parsed.Scheme))
	}

	if parsed.Scheme == "http" {
		result.Warnings = append(result.Warnings, "page is served over plain HTTP")
	}
}

// validateSelectors compiles every configured CSS selector
func (c *JobConfig) validateSelectors(result *ValidationResult) {
	for i, sel := range c.ControlSelectors {
		field := fmt.Sprintf("control_selectors[%d]", i)
		if strings.TrimSpace(sel) == "" {
			result.add(field, "", "selector cannot be empty")
			continue
		}
		if err := dom.ValidateSelector(sel); err != nil {
			result.add(field, sel, err.Error())
		}
	}

	if c.Scope.Selector != "" {
		if err := dom.ValidateSelector(c.Scope.Selector); err != nil {
			result.add("scope.selector", c.Scope.Selector, err.Error())
		}
	}
	if c.Scope.Selector != "" && c.Scope.Label != "" {
		result.Warnings = append(result.Warnings, "scope.selector takes precedence over scope.label")
	}

	if c.Browser != nil && c.Browser.WaitForElement != "" {
		if err := dom.ValidateSelector(c.Browser.WaitForElement); err != nil {
			result.add("browser.wait_for_element", c.Browser.WaitForElement, err.Error())
		}
	}
}

// validateActivation checks click timing
func (c *JobConfig) validateActivation(result *ValidationResult) {
	a := c.Activation
	if a.SettleTimeout < 0 {
		result.add("activation.settle_timeout", a.SettleTimeout.String(), "must not be negative")
	}
	if a.PollInterval < 0 {
		result.add("activation.poll_interval", a.PollInterval.String(), "must not be negative")
	}
	if a.PollInterval > 0 && a.SettleTimeout > 0 && a.PollInterval > a.SettleTimeout {
		result.Warnings = append(result.Warnings, "activation.poll_interval exceeds settle_timeout")
	}
}

// validateStrategies checks disabled strategy names
func (c *JobConfig) validateStrategies(result *ValidationResult) {
	if _, err := faq.NewResolver(c.Strategies.Disabled...); err != nil {
		result.add("strategies.disabled", strings.Join(c.Strategies.Disabled, ","), err.Error())
	}
	if len(c.Strategies.Disabled) >= len(faq.DefaultStrategies()) {
		result.Warnings = append(result.Warnings, "every resolution strategy is disabled; no panels will resolve")
	}
}

// validateOutput checks the sink settings
func (c *JobConfig) validateOutput(result *ValidationResult) {
	o := c.Output
	if !validOutputFormats[o.Format] {
		result.add("output.format", o.Format, "unsupported output format")
		return
	}

	switch o.Format {
	case "json", "csv", "yaml", "xlsx", "sqlite":
		if o.File == "" {
			result.add("output.file", "", fmt.Sprintf("file is required for %s output", o.Format))
		}
		if o.File == "-" && o.Format != "json" {
			result.add("output.file", o.File, "standard output is only supported for json")
		}
	case "mysql", "postgresql":
		if o.DSN == "" {
			result.add("output.dsn", "", fmt.Sprintf("dsn is required for %s output", o.Format))
		}
	case "mongodb":
		if o.DSN == "" {
			result.add("output.dsn", "", "dsn is required for mongodb output")
		}
		if o.Database == "" {
			result.add("output.database", "", "database is required for mongodb output")
		}
	}
}
