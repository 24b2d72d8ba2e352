// Package dom is the document-access layer used by the extraction engine:
// goquery-backed snapshots of a document, element helpers, and the Document
// interface implemented by static HTML and by the live browser.
package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is a handle to a single element inside a Snapshot. The zero Node is
// "no element". Nodes are only valid for the Snapshot they came from.
type Node struct {
	sel *goquery.Selection
}

// NodeOf wraps the first element of sel.
func NodeOf(sel *goquery.Selection) Node {
	if sel == nil || sel.Length() == 0 {
		return Node{}
	}
	return Node{sel: sel.First()}
}

func nodeOfHTML(n *html.Node, doc *goquery.Selection) Node {
	if n == nil {
		return Node{}
	}
	return Node{sel: doc.FindNodes(n)}
}

// IsZero reports whether the node refers to no element.
func (n Node) IsZero() bool {
	return n.sel == nil || n.sel.Length() == 0
}

// Selection exposes the underlying goquery selection.
func (n Node) Selection() *goquery.Selection {
	return n.sel
}

// HTMLNode returns the underlying *html.Node, or nil.
func (n Node) HTMLNode() *html.Node {
	if n.IsZero() {
		return nil
	}
	return n.sel.Get(0)
}

// Tag returns the lower-case element name.
func (n Node) Tag() string {
	if n.IsZero() {
		return ""
	}
	return goquery.NodeName(n.sel)
}

// Attr returns the value of the named attribute.
func (n Node) Attr(name string) (string, bool) {
	if n.IsZero() {
		return "", false
	}
	return n.sel.Attr(name)
}

// AttrOr returns the named attribute, or def when it is absent.
func (n Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// Text returns the rendered text: script/style content is skipped, block
// boundaries become spaces, whitespace runs collapse to one space, and the
// result is trimmed.
func (n Node) Text() string {
	if n.IsZero() {
		return ""
	}
	var b strings.Builder
	collectText(n.HTMLNode(), &b)
	return CollapseWhitespace(b.String())
}

// InnerHTML returns the serialized children of the element.
func (n Node) InnerHTML() string {
	if n.IsZero() {
		return ""
	}
	out, err := n.sel.Html()
	if err != nil {
		return ""
	}
	return out
}

// Parent returns the parent element, or the zero Node at the top.
func (n Node) Parent() Node {
	if n.IsZero() {
		return Node{}
	}
	return NodeOf(n.sel.Parent())
}

// Children returns element children in document order.
func (n Node) Children() []Node {
	if n.IsZero() {
		return nil
	}
	return nodesOf(n.sel.Children())
}

// NextSiblings returns up to limit following element siblings.
func (n Node) NextSiblings(limit int) []Node {
	if n.IsZero() || limit <= 0 {
		return nil
	}
	var out []Node
	for sib := n.sel.Next(); sib.Length() > 0 && len(out) < limit; sib = sib.Next() {
		out = append(out, Node{sel: sib})
	}
	return out
}

// PrevSiblings returns preceding element siblings, nearest first.
func (n Node) PrevSiblings() []Node {
	if n.IsZero() {
		return nil
	}
	var out []Node
	for sib := n.sel.Prev(); sib.Length() > 0; sib = sib.Prev() {
		out = append(out, Node{sel: sib})
	}
	return out
}

// Find returns descendants matching a CSS selector. Invalid selectors match nothing.
func (n Node) Find(selector string) []Node {
	if n.IsZero() {
		return nil
	}
	m, err := compile(selector)
	if err != nil {
		return nil
	}
	return nodesOf(n.sel.FindMatcher(m))
}

// Closest returns the nearest ancestor-or-self matching selector.
func (n Node) Closest(selector string) Node {
	if n.IsZero() {
		return Node{}
	}
	m, err := compile(selector)
	if err != nil {
		return Node{}
	}
	return NodeOf(n.sel.ClosestMatcher(m))
}

// Same reports whether both handles point at the same element.
func (n Node) Same(o Node) bool {
	if n.IsZero() || o.IsZero() {
		return false
	}
	return n.HTMLNode() == o.HTMLNode()
}

// Contains reports whether o is n or a descendant of n.
func (n Node) Contains(o Node) bool {
	if n.IsZero() || o.IsZero() {
		return false
	}
	target := n.HTMLNode()
	for p := o.HTMLNode(); p != nil; p = p.Parent {
		if p == target {
			return true
		}
	}
	return false
}

// Visible approximates rendering visibility from markup alone: the element and
// its ancestors must not be hidden by attribute, aria-hidden or inline style.
func (n Node) Visible() bool {
	if n.IsZero() {
		return false
	}
	for p := n.HTMLNode(); p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if hiddenElement(p) {
			return false
		}
	}
	return true
}

// Expanded reports whether the element is marked as expanded: aria-expanded="true",
// or a summary whose details parent is open.
func (n Node) Expanded() bool {
	if v, ok := n.Attr("aria-expanded"); ok {
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if n.Tag() == "summary" {
		parent := n.Parent()
		if parent.Tag() == "details" {
			_, open := parent.Attr("open")
			return open
		}
	}
	return false
}

// Path returns child-index steps from the document root to the node.
func (n Node) Path() []int {
	if n.IsZero() {
		return nil
	}
	var path []int
	for c := n.HTMLNode(); c.Parent != nil; c = c.Parent {
		idx := 0
		for s := c.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode {
				idx++
			}
		}
		path = append(path, idx)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func nodesOf(sel *goquery.Selection) []Node {
	out := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, Node{sel: s})
	})
	return out
}

var skippedTextTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "details": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "summary": true, "table": true, "td": true,
	"th": true, "tr": true, "ul": true,
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedTextTags[n.Data] {
			return
		}
	}
	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
	if block {
		b.WriteByte(' ')
	}
}

func hiddenElement(n *html.Node) bool {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(strings.TrimSpace(a.Val), "true") {
				return true
			}
		case "style":
			style := strings.ToLower(strings.ReplaceAll(a.Val, " ", ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

// CollapseWhitespace collapses every whitespace run to a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
