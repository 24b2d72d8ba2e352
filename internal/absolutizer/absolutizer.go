// Package absolutizer rewrites relative resource references inside raw HTML
// fragments into absolute URLs.
package absolutizer

import (
	"strings"

	whatwg "github.com/nlnwa/whatwg-url/url"
	"golang.org/x/net/html"
)

// preservedPrefixes are left untouched, matched case-insensitively.
var preservedPrefixes = []string{"http:", "https:", "mailto:", "tel:", "data:"}

// urlAttrs are the attributes whose values are rewritten.
var urlAttrs = map[string]bool{"href": true, "src": true, "data-src": true, "srcset": true}

// IsAbsolute reports whether raw already starts with a scheme that must not be rewritten.
func IsAbsolute(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, prefix := range preservedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// ResolveURL resolves raw against base the way a browser joins URLs.
// Values that are already absolute, or that cannot be parsed, come back unchanged.
func ResolveURL(raw, base string) string {
	if IsAbsolute(raw) {
		return raw
	}
	resolved, err := whatwg.ParseRef(base, strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return resolved.Href(false)
}

// Absolutize rewrites href, src, data-src and srcset values in every tag of
// fragment. Text, comments, other attributes and quoting are left as they are.
// Applying it twice with the same base yields the same output as once.
func Absolutize(fragment, base string) string {
	if fragment == "" {
		return fragment
	}

	var b strings.Builder
	b.Grow(len(fragment) + len(fragment)/8)

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		raw := z.Raw()
		switch tt {
		case html.ErrorToken:
			// io.EOF, or a truncated tag whose raw bytes are kept verbatim
			b.Write(raw)
			return b.String()
		case html.StartTagToken, html.SelfClosingTagToken:
			b.WriteString(rewriteTag(string(raw), base))
		default:
			b.Write(raw)
		}
	}
}

// rewriteTag rewrites URL attributes of one raw start tag.
func rewriteTag(tag, base string) string {
	var b strings.Builder
	last := 0
	for _, a := range scanAttrs(tag) {
		if a.valueStart < 0 || !urlAttrs[strings.ToLower(tag[a.nameStart:a.nameEnd])] {
			continue
		}
		decoded := html.UnescapeString(tag[a.valueStart:a.valueEnd])

		var rewritten string
		if strings.EqualFold(tag[a.nameStart:a.nameEnd], "srcset") {
			rewritten = AbsolutizeSrcset(decoded, base)
		} else {
			rewritten = ResolveURL(decoded, base)
		}
		if rewritten == decoded {
			continue
		}

		b.WriteString(tag[last:a.valueStart])
		b.WriteString(escapeAttr(rewritten, a.quote))
		last = a.valueEnd
	}
	if last == 0 {
		return tag
	}
	b.WriteString(tag[last:])
	return b.String()
}

// attrSpan holds byte offsets of one attribute inside a raw tag.
// valueStart is -1 for an attribute without a value.
type attrSpan struct {
	nameStart, nameEnd   int
	valueStart, valueEnd int
	quote                string
}

// scanAttrs walks a raw start tag attribute by attribute, following the
// tokenizer's rules, so text inside a quoted value is never read as a name.
func scanAttrs(tag string) []attrSpan {
	isSpace := func(c byte) bool {
		return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
	}
	skipSpace := func(i int) int {
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		return i
	}

	i := 1
	for i < len(tag) && !isSpace(tag[i]) && tag[i] != '/' && tag[i] != '>' {
		i++
	}

	var attrs []attrSpan
	for {
		for i < len(tag) && (isSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			return attrs
		}

		a := attrSpan{nameStart: i, valueStart: -1}
		// a leading '=' belongs to the name
		i++
		for i < len(tag) && !isSpace(tag[i]) && tag[i] != '/' && tag[i] != '>' && tag[i] != '=' {
			i++
		}
		a.nameEnd = i

		j := skipSpace(i)
		if j >= len(tag) || tag[j] != '=' {
			attrs = append(attrs, a)
			i = j
			continue
		}
		i = skipSpace(j + 1)
		if i >= len(tag) || tag[i] == '>' {
			a.valueStart, a.valueEnd = i, i
			attrs = append(attrs, a)
			continue
		}

		switch q := tag[i]; q {
		case '"', '\'':
			a.quote = string(q)
			a.valueStart = i + 1
			end := strings.IndexByte(tag[i+1:], q)
			if end < 0 {
				a.valueEnd = len(tag)
				i = len(tag)
			} else {
				a.valueEnd = i + 1 + end
				i = a.valueEnd + 1
			}
		default:
			a.valueStart = i
			for i < len(tag) && !isSpace(tag[i]) && tag[i] != '>' {
				i++
			}
			a.valueEnd = i
		}
		attrs = append(attrs, a)
	}
}

// escapeAttr escapes what would otherwise terminate or corrupt an attribute value.
func escapeAttr(value, quote string) string {
	value = strings.ReplaceAll(value, "&", "&amp;")
	switch quote {
	case `"`:
		value = strings.ReplaceAll(value, `"`, "&#34;")
	case `'`:
		value = strings.ReplaceAll(value, `'`, "&#39;")
	default:
		value = strings.NewReplacer(`"`, "&#34;", `'`, "&#39;", " ", "%20", ">", "%3E").Replace(value)
	}
	return value
}
