// internal/browser/types.go
package browser

import (
	"time"
)

// BrowserConfig defines browser automation configuration
type BrowserConfig struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	UserDataDir    string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	WaitForElement string        `yaml:"wait_for_element,omitempty" json:"wait_for_element,omitempty"`
	WaitDelay      time.Duration `yaml:"wait_delay,omitempty" json:"wait_delay,omitempty"`
	UserAgent      string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	DisableImages  bool          `yaml:"disable_images" json:"disable_images"`
	ExecPath       string        `yaml:"exec_path,omitempty" json:"exec_path,omitempty"`
}

// DefaultBrowserConfig returns default browser configuration
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Headless:       true,
		Timeout:        2 * time.Minute,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		WaitDelay:      time.Second,
		DisableImages:  false,
	}
}

// BrowserStats contains browser automation statistics
type BrowserStats struct {
	PagesLoaded      int           `json:"pages_loaded"`
	LoadTime         time.Duration `json:"load_time"`
	Snapshots        int           `json:"snapshots"`
	Clicks           int           `json:"clicks"`
	Errors           int           `json:"errors"`
	JavaScriptErrors int           `json:"javascript_errors"`
}
