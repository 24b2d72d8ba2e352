package dom

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// Document is a document that can be observed and clicked. Snapshots taken
// before a Click do not reflect it; callers re-snapshot after every click.
type Document interface {
	// Snapshot returns a fresh parsed view of the current document state.
	Snapshot(ctx context.Context) (*Snapshot, error)
	// Click activates the index-th element (document order) matching selector.
	Click(ctx context.Context, selector string, index int) error
	// URL returns the address the document was loaded from.
	URL() string
}

// ErrNoSuchElement is returned by Click when selector/index no longer resolves.
var ErrNoSuchElement = fmt.Errorf("element not found")

// StaticDocument is an in-memory Document over fixed markup. Clicking an
// element emulates a typical accordion: aria-expanded flips, the aria-controls
// target toggles its hidden attribute, and a parent <details> toggles open.
type StaticDocument struct {
	mu     sync.Mutex
	url    string
	markup string
	clicks int
}

// NewStaticDocument returns a Document serving markup as if loaded from url.
func NewStaticDocument(url, markup string) *StaticDocument {
	return &StaticDocument{url: url, markup: markup}
}

// URL implements Document.
func (d *StaticDocument) URL() string {
	return d.url
}

// Snapshot implements Document.
func (d *StaticDocument) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	markup := d.markup
	d.mu.Unlock()
	return NewSnapshot(markup)
}

// Click implements Document.
func (d *StaticDocument) Click(ctx context.Context, selector string, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	snap, err := NewSnapshot(d.markup)
	if err != nil {
		return err
	}
	nodes, err := snap.QueryAll(selector)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(nodes) {
		return fmt.Errorf("%w: %s[%d]", ErrNoSuchElement, selector, index)
	}

	target := nodes[index]
	toggleControl(snap, target)

	out, err := snap.HTML()
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	d.markup = out
	d.clicks++
	return nil
}

// Clicks returns how many clicks were applied.
func (d *StaticDocument) Clicks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clicks
}

// HTML returns the current markup.
func (d *StaticDocument) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.markup
}

func toggleControl(snap *Snapshot, control Node) {
	n := control.HTMLNode()

	expanded := control.Expanded()
	if _, ok := control.Attr("aria-expanded"); ok {
		setAttr(n, "aria-expanded", fmt.Sprintf("%t", !expanded))
	}

	if ids, ok := control.Attr("aria-controls"); ok {
		if fields := strings.Fields(ids); len(fields) > 0 {
			if panel := snap.ByID(fields[0]).HTMLNode(); panel != nil {
				if expanded {
					setAttr(panel, "hidden", "")
				} else {
					removeAttr(panel, "hidden")
				}
			}
		}
	}

	if control.Tag() == "summary" {
		if parent := n.Parent; parent != nil && parent.Data == "details" {
			if hasAttr(parent, "open") {
				removeAttr(parent, "open")
			} else {
				setAttr(parent, "open", "")
			}
		}
	}
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}
