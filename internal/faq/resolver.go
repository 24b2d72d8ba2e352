package faq

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/valpere/FAQScrapexter/internal/dom"
)

// Strategy names, in resolution order.
const (
	StrategyLinkedID    = "linked-id"
	StrategyDisclosure  = "disclosure-sibling"
	StrategySiblingWalk = "sibling-walk"
	StrategyHeuristic   = "heuristic-descendant"
	StrategyGlobal      = "global-fallback"
)

// SiblingWalkLimit bounds how many following siblings the sibling walk inspects.
const SiblingWalkLimit = 6

const (
	containerSelector = `[class*="item"], [class*="accordion"]`
	heuristicSelector = `[class*="answer"], [class*="panel"], [class*="accordion-body"], [class*="content"], [role*="region"]`
	globalSelector    = `[role="region"], [aria-hidden="false"], [class*="open"], [class*="is-active"], details[open]`
)

// Input is what a strategy sees: the control re-queried from a fresh
// snapshot, the scope it was discovered in, and the snapshot itself.
type Input struct {
	Control  dom.Node
	Scope    dom.Node
	Document *dom.Snapshot
}

// StrategyFunc proposes a panel for a control. It must not mutate anything.
type StrategyFunc func(in Input) (dom.Node, bool)

// Strategy is one named link of the resolution chain.
type Strategy struct {
	Name string
	Find StrategyFunc
}

// DefaultStrategies returns the full chain in its fixed order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: StrategyLinkedID, Find: LinkedID},
		{Name: StrategyDisclosure, Find: DisclosureSibling},
		{Name: StrategySiblingWalk, Find: SiblingWalk},
		{Name: StrategyHeuristic, Find: HeuristicDescendant},
		{Name: StrategyGlobal, Find: GlobalFallback},
	}
}

// Resolver runs strategies in order and returns the first non-empty panel.
type Resolver struct {
	chain []Strategy
}

// NewResolver builds the default chain minus the named strategies. Disabling
// never reorders the remaining strategies.
func NewResolver(disabled ...string) (*Resolver, error) {
	all := DefaultStrategies()
	known := make(map[string]bool, len(all))
	for _, s := range all {
		known[s.Name] = true
	}

	off := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		name = strings.TrimSpace(name)
		if !known[name] {
			return nil, configError(fmt.Sprintf("unknown strategy %q", name), nil)
		}
		off[name] = true
	}

	var chain []Strategy
	for _, s := range all {
		if !off[s.Name] {
			chain = append(chain, s)
		}
	}
	return &Resolver{chain: chain}, nil
}

// Strategies returns the active strategy names in order.
func (r *Resolver) Strategies() []string {
	names := make([]string, len(r.chain))
	for i, s := range r.chain {
		names[i] = s.Name
	}
	return names
}

// Resolve returns the panel for in.Control and the name of the strategy that found it.
func (r *Resolver) Resolve(in Input) (dom.Node, string, error) {
	if in.Control.IsZero() {
		return dom.Node{}, "", ErrControlVanished
	}
	for _, s := range r.chain {
		panel, ok := s.Find(in)
		if ok && HasContent(panel) {
			return panel, s.Name, nil
		}
	}
	return dom.Node{}, "", ErrPanelNotFound
}

// HasContent reports whether a panel has rendered text or an image.
func HasContent(n dom.Node) bool {
	if n.IsZero() {
		return false
	}
	if n.Text() != "" || n.Tag() == "img" {
		return true
	}
	return len(n.Find("img")) > 0
}

// LinkedID follows the control's aria-controls reference anywhere in the document.
func LinkedID(in Input) (dom.Node, bool) {
	ref, ok := in.Control.Attr("aria-controls")
	if !ok || in.Document == nil {
		return dom.Node{}, false
	}
	ids := strings.Fields(ref)
	if len(ids) == 0 {
		return dom.Node{}, false
	}
	panel := in.Document.ByID(ids[0])
	return panel, !panel.IsZero()
}

// DisclosureSibling handles <details><summary>: the panel is the first other
// child of <details>, or <details> itself.
func DisclosureSibling(in Input) (dom.Node, bool) {
	if in.Control.Tag() != "summary" {
		return dom.Node{}, false
	}
	container := in.Control.Parent()
	if container.Tag() != "details" {
		return dom.Node{}, false
	}
	for _, child := range container.Children() {
		if !child.Same(in.Control) {
			return child, true
		}
	}
	return container, true
}

// SiblingWalk inspects up to SiblingWalkLimit following siblings of the
// control and then of its parent, returning the first visible one with text.
func SiblingWalk(in Input) (dom.Node, bool) {
	for _, origin := range []dom.Node{in.Control, in.Control.Parent()} {
		if origin.IsZero() || origin.Same(in.Scope) {
			continue
		}
		for _, sib := range origin.NextSiblings(SiblingWalkLimit) {
			if sib.Visible() && sib.Text() != "" {
				return sib, true
			}
		}
	}
	return dom.Node{}, false
}

// HeuristicDescendant searches the control's item/accordion container for
// answer-like descendants.
func HeuristicDescendant(in Input) (dom.Node, bool) {
	parent := in.Control.Parent()
	if parent.IsZero() {
		return dom.Node{}, false
	}
	container := parent.Closest(containerSelector)
	if container.IsZero() || (!in.Scope.IsZero() && !in.Scope.Contains(container)) {
		container = parent
	}
	for _, candidate := range container.Find(heuristicSelector) {
		if candidate.Contains(in.Control) {
			continue
		}
		if HasContent(candidate) {
			return candidate, true
		}
	}
	return dom.Node{}, false
}

// GlobalFallback scans the whole document for expanded-looking elements and
// picks the longest text. Ties go to the first one in document order.
func GlobalFallback(in Input) (dom.Node, bool) {
	if in.Document == nil {
		return dom.Node{}, false
	}
	candidates, err := in.Document.QueryAll(globalSelector)
	if err != nil {
		return dom.Node{}, false
	}

	var best dom.Node
	bestLen := -1
	for _, c := range candidates {
		if c.Contains(in.Control) || !HasContent(c) {
			continue
		}
		if l := utf8.RuneCountInString(c.Text()); l > bestLen {
			best, bestLen = c, l
		}
	}
	return best, !best.IsZero()
}
