package absolutizer

import (
	"strings"
	"unicode"
)

// srcsetCandidate is one "url [descriptor]" entry of a srcset value.
type srcsetCandidate struct {
	raw        string
	url        string
	descriptor string
	malformed  bool
}

// AbsolutizeSrcset absolutizes the URL of every srcset candidate, leaving the
// descriptors untouched. Candidates are rejoined with ", " and a single space
// separates URL and descriptor. Malformed candidates are passed through as-is.
func AbsolutizeSrcset(value, base string) string {
	candidates := parseSrcset(value)
	if len(candidates) == 0 {
		return value
	}

	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.malformed {
			parts = append(parts, c.raw)
			continue
		}
		u := ResolveURL(c.url, base)
		if c.descriptor == "" {
			parts = append(parts, u)
		} else {
			parts = append(parts, u+" "+c.descriptor)
		}
	}
	return strings.Join(parts, ", ")
}

// parseSrcset splits a srcset value into candidates. A URL is a run of
// non-whitespace characters, so commas inside data URIs stay with their URL;
// a URL ending in commas has no descriptor.
func parseSrcset(value string) []srcsetCandidate {
	var out []srcsetCandidate
	rs := []rune(value)
	i := 0
	for i < len(rs) {
		for i < len(rs) && (unicode.IsSpace(rs[i]) || rs[i] == ',') {
			i++
		}
		if i >= len(rs) {
			break
		}

		start := i
		for i < len(rs) && !unicode.IsSpace(rs[i]) {
			i++
		}
		url := string(rs[start:i])

		if strings.HasSuffix(url, ",") {
			url = strings.TrimRight(url, ",")
			out = append(out, srcsetCandidate{raw: url, url: url})
			continue
		}

		descStart := i
		depth := 0
		for i < len(rs) {
			if rs[i] == '(' {
				depth++
			} else if rs[i] == ')' && depth > 0 {
				depth--
			} else if rs[i] == ',' && depth == 0 {
				break
			}
			i++
		}
		descriptor := strings.Join(strings.Fields(string(rs[descStart:i])), " ")
		raw := strings.TrimSpace(string(rs[start:i]))

		out = append(out, srcsetCandidate{
			raw:        raw,
			url:        url,
			descriptor: descriptor,
			malformed:  strings.Contains(descriptor, " ") || strings.ContainsAny(descriptor, "()"),
		})
	}
	return out
}
