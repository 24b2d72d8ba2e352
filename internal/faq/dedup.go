package faq

import "strings"

// DedupTracker remembers the questions emitted during one run. It is not
// safe for concurrent use and must not be shared between runs.
type DedupTracker struct {
	seen map[string]struct{}
}

// NewDedupTracker returns an empty tracker.
func NewDedupTracker() *DedupTracker {
	return &DedupTracker{seen: make(map[string]struct{})}
}

// Seen reports whether question was already added. Only surrounding
// whitespace is ignored.
func (d *DedupTracker) Seen(question string) bool {
	_, ok := d.seen[strings.TrimSpace(question)]
	return ok
}

// Add registers question.
func (d *DedupTracker) Add(question string) {
	d.seen[strings.TrimSpace(question)] = struct{}{}
}

// Len returns the number of distinct questions.
func (d *DedupTracker) Len() int {
	return len(d.seen)
}
