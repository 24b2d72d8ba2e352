// Package faq extracts question/answer records from accordion-style FAQ
// markup: it discovers question controls, activates them, resolves each
// control's answer panel and turns the panel into a types.Record.
package faq

import (
	"time"

	"github.com/valpere/FAQScrapexter/pkg/types"
)

// DefaultControlSelectors are tried in order; the first group matching any
// element is used for discovery.
var DefaultControlSelectors = []string{
	`button[aria-controls]`,
	`details > summary`,
	`.accordion button, .accordion__item > button, .accordion__header button, .faq-list button`,
}

// DefaultDismissLabels are the overlay button labels job templates start
// with. Options leave dismissal off unless labels are configured.
var DefaultDismissLabels = []string{"닫기", "동의", "Close", "Accept"}

const (
	// MinScopedControls is the number of records a scoped pass must yield
	// before the whole-document pass is skipped.
	MinScopedControls = 3

	// DefaultSettleTimeout bounds the wait for a panel after activation.
	DefaultSettleTimeout = 3 * time.Second

	// DefaultSectionMatch is matched against headings when no section is set.
	DefaultSectionMatch = "FAQ"
)

// Pass names reported to the Recorder.
const (
	PassScoped   = "scoped"
	PassDocument = "document"
)

// Skip reasons reported to the Recorder.
const (
	SkipEmptyText     = "empty_text"
	SkipDuplicate     = "duplicate"
	SkipVanished      = "vanished"
	SkipPanelNotFound = "panel_not_found"
)

// Control is a question control found during discovery. It is identified by
// the selector group it was found with and its position among that group's
// matches in the whole document, so it can be re-queried from any snapshot.
type Control struct {
	Selector string
	Index    int
	Text     string
	PanelID  string
	Expanded bool
	Tag      string
	// HasExpandedState reports whether the control carries aria-expanded.
	HasExpandedState bool
}

// Scope narrows discovery to one container of the document.
type Scope struct {
	Selector string
	Label    string
}

// IsZero reports whether no scope is configured.
func (s Scope) IsZero() bool {
	return s.Selector == "" && s.Label == ""
}

// Options control a single pipeline run.
type Options struct {
	// RunID tags log lines; generated when empty.
	RunID string
	// BaseURL is stamped into records and used to absolutize references.
	// Defaults to the document URL.
	BaseURL string
	// Section is a static section label for every record.
	Section string
	// SectionMatch selects headings used to derive the section when Section is empty.
	SectionMatch string
	// MaxItems caps the number of records; zero or less means unlimited.
	MaxItems int
	Scope    Scope
	// ControlSelectors override DefaultControlSelectors.
	ControlSelectors []string
	// SettleTimeout bounds the readiness wait after each activation.
	SettleTimeout time.Duration
	// RestoreState collapses controls the pipeline expanded.
	RestoreState  bool
	DismissLabels []string
}

// DefaultOptions returns Options with the documented defaults.
func DefaultOptions() Options {
	return Options{
		SectionMatch:     DefaultSectionMatch,
		ControlSelectors: append([]string(nil), DefaultControlSelectors...),
		SettleTimeout:    DefaultSettleTimeout,
		RestoreState:     true,
	}
}

func (o Options) selectorGroups() []string {
	if len(o.ControlSelectors) > 0 {
		return o.ControlSelectors
	}
	return DefaultControlSelectors
}

// Content is what the extractor pulls out of a resolved panel.
type Content struct {
	AnswerText string
	AnswerHTML string
	Links      []types.LinkRef
	Images     []types.ImageRef
}

// Recorder observes pipeline progress. Implementations must be cheap.
type Recorder interface {
	ControlDiscovered(pass string)
	ControlSkipped(reason string)
	PanelResolved(strategy string)
	ActivationFailed()
	RecordEmitted()
}

type nopRecorder struct{}

func (nopRecorder) ControlDiscovered(string) {}
func (nopRecorder) ControlSkipped(string) {}
func (nopRecorder) PanelResolved(string) {}
func (nopRecorder) ActivationFailed() {}
func (nopRecorder) RecordEmitted() {}
