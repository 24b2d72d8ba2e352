package faq

import (
	"context"
	"strings"

	"golang.org/x/text/cases"

	"github.com/valpere/FAQScrapexter/internal/dom"
)

const (
	dismissSelector = `button, [role="button"]`
	headingSelector = `h1, h2, h3, h4`
)

var fold = cases.Fold()

func containsFold(haystack, needle string) bool {
	return strings.Contains(fold.String(haystack), fold.String(needle))
}

// DiscoverControls returns the controls of the first selector group that
// matches inside scope (or anywhere, when scope is the zero Node). Indexes are
// positions among the group's matches in the whole document.
func DiscoverControls(snap *dom.Snapshot, scope dom.Node, groups []string) ([]Control, error) {
	for _, group := range groups {
		nodes, err := snap.QueryAll(group)
		if err != nil {
			return nil, configError("invalid control selector", err)
		}

		var controls []Control
		for i, n := range nodes {
			if !scope.IsZero() && !scope.Contains(n) {
				continue
			}
			controls = append(controls, controlOf(group, i, n))
		}
		if len(controls) > 0 {
			return controls, nil
		}
	}
	return nil, nil
}

func controlOf(selector string, index int, n dom.Node) Control {
	c := Control{
		Selector: selector,
		Index:    index,
		Text:     n.Text(),
		Expanded: n.Expanded(),
		Tag:      n.Tag(),
	}
	if ref, ok := n.Attr("aria-controls"); ok {
		if ids := strings.Fields(ref); len(ids) > 0 {
			c.PanelID = ids[0]
		}
	}
	_, c.HasExpandedState = n.Attr("aria-expanded")
	return c
}

// Locate re-finds a control in a fresh snapshot. The node at the recorded
// index is used when its text still matches; otherwise the first match of the
// selector with the same text is taken.
func Locate(snap *dom.Snapshot, c Control) (dom.Node, bool) {
	nodes, err := snap.QueryAll(c.Selector)
	if err != nil {
		return dom.Node{}, false
	}
	if c.Index < len(nodes) && nodes[c.Index].Text() == c.Text {
		return nodes[c.Index], true
	}
	for _, n := range nodes {
		if n.Text() == c.Text {
			return n, true
		}
	}
	return dom.Node{}, false
}

// FindScope resolves the configured scope. A selector wins over a label; a
// label scope is the nearest section, article, div or parent around the label
// that holds at least MinScopedControls controls. The zero Node means the
// whole document.
func FindScope(snap *dom.Snapshot, scope Scope, groups []string) dom.Node {
	if scope.Selector != "" {
		if nodes, err := snap.QueryAll(scope.Selector); err == nil && len(nodes) > 0 {
			return nodes[0]
		}
	}
	if scope.Label == "" {
		return dom.Node{}
	}

	for _, holder := range labelHolders(snap, scope.Label) {
		candidates := []dom.Node{
			holder.Closest("section"),
			holder.Closest("article"),
			holder.Closest("div"),
			holder.Parent(),
		}
		for _, c := range candidates {
			if c.IsZero() {
				continue
			}
			if countControls(snap, c, groups) >= MinScopedControls {
				return c
			}
		}
	}
	return dom.Node{}
}

// labelHolders returns the innermost elements whose text contains label.
func labelHolders(snap *dom.Snapshot, label string) []dom.Node {
	var out []dom.Node
	var walk func(n dom.Node)
	walk = func(n dom.Node) {
		if !containsFold(n.Text(), label) {
			return
		}
		inner := false
		for _, child := range n.Children() {
			if containsFold(child.Text(), label) {
				inner = true
				walk(child)
			}
		}
		if !inner {
			out = append(out, n)
		}
	}
	walk(snap.Body())
	return out
}

func countControls(snap *dom.Snapshot, scope dom.Node, groups []string) int {
	controls, err := DiscoverControls(snap, scope, groups)
	if err != nil {
		return 0
	}
	return len(controls)
}

// SectionFor derives a section label for a control: the nearest preceding
// heading whose text contains match, else "".
func SectionFor(control dom.Node, match string) string {
	if match == "" {
		return ""
	}
	for n := control; !n.IsZero(); n = n.Parent() {
		for _, prev := range n.PrevSiblings() {
			if h := lastMatchingHeading(prev, match); h != "" {
				return h
			}
		}
	}
	return ""
}

func lastMatchingHeading(n dom.Node, match string) string {
	if isHeading(n) && containsFold(n.Text(), match) {
		return n.Text()
	}
	found := ""
	for _, h := range n.Find(headingSelector) {
		if text := h.Text(); containsFold(text, match) {
			found = text
		}
	}
	return found
}

func isHeading(n dom.Node) bool {
	switch n.Tag() {
	case "h1", "h2", "h3", "h4":
		return true
	}
	return false
}

// dismissOverlays clicks, once per label, the first visible button whose text
// contains the label. Every label is matched against a fresh snapshot because
// a dismissed overlay usually removes or reorders its buttons. It reports
// whether anything was clicked; click errors are ignored.
func dismissOverlays(ctx context.Context, doc dom.Document, labels []string) (bool, error) {
	clicked := false
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			continue
		}
		snap, err := doc.Snapshot(ctx)
		if err != nil {
			return clicked, err
		}
		nodes, err := snap.QueryAll(dismissSelector)
		if err != nil {
			return clicked, nil
		}
		for i, n := range nodes {
			if !dismissible(n, label) {
				continue
			}
			if doc.Click(ctx, dismissSelector, i) == nil {
				clicked = true
			}
			break
		}
	}
	return clicked, nil
}

func dismissible(n dom.Node, label string) bool {
	if !n.Visible() {
		return false
	}
	text := n.Text()
	if text == "" || len([]rune(text)) > 20 {
		return false
	}
	return containsFold(text, label)
}
