package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Snapshot is an immutable parsed view of a document at one point in time.
type Snapshot struct {
	doc *goquery.Document
}

// NewSnapshot parses markup into a Snapshot.
func NewSnapshot(markup string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Snapshot{doc: doc}, nil
}

// Root returns the <html> element.
func (s *Snapshot) Root() Node {
	return NodeOf(s.doc.Find("html"))
}

// Body returns <body>, falling back to the root element.
func (s *Snapshot) Body() Node {
	if body := NodeOf(s.doc.Find("body")); !body.IsZero() {
		return body
	}
	return s.Root()
}

// QueryAll returns every element matching selector, in document order.
func (s *Snapshot) QueryAll(selector string) ([]Node, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	return nodesOf(s.doc.FindMatcher(m)), nil
}

// ByID returns the element whose id attribute equals id exactly.
func (s *Snapshot) ByID(id string) Node {
	if id == "" {
		return Node{}
	}
	found := s.doc.FindMatcher(idMatcher(id))
	return NodeOf(found)
}

// At follows a child-index path produced by Node.Path.
func (s *Snapshot) At(path []int) Node {
	if len(path) == 0 {
		return Node{}
	}
	cur := s.doc.Get(0)
	for _, step := range path {
		if cur = elementChild(cur, step); cur == nil {
			return Node{}
		}
	}
	return nodeOfHTML(cur, s.doc.Selection)
}

// HTML serializes the whole snapshot.
func (s *Snapshot) HTML() (string, error) {
	return goquery.OuterHtml(s.doc.Selection)
}

func elementChild(n *html.Node, idx int) *html.Node {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if i == idx {
			return c
		}
		i++
	}
	return nil
}

// compile validates a CSS selector group with cascadia so malformed input
// reports an error instead of silently matching nothing inside goquery.
func compile(selector string) (goquery.Matcher, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return sel, nil
}

// ValidateSelector reports whether selector is a valid CSS selector group.
func ValidateSelector(selector string) error {
	_, err := compile(selector)
	return err
}

// idMatcher matches the id attribute exactly, which also covers ids that are
// not valid CSS identifiers.
type idMatcher string

func (m idMatcher) Match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "id" && a.Val == string(m) {
			return true
		}
	}
	return false
}

func (m idMatcher) MatchAll(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if m.Match(c) {
			out = append(out, c)
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		walk(ch)
	}
	return out
}

func (m idMatcher) Filter(nodes []*html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		if m.Match(n) {
			out = append(out, n)
		}
	}
	return out
}
