// internal/utils/files.go
package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// CleanFileName replaces characters that are invalid in file names
func CleanFileName(name string) string {
	cleaned := invalidFileChars.ReplaceAllString(name, "_")
	cleaned = strings.Join(strings.Fields(cleaned), "_")
	cleaned = strings.Trim(cleaned, ".")

	if len(cleaned) > 200 {
		cleaned = TruncateText(cleaned, 200, "")
	}
	if cleaned == "" {
		cleaned = "output"
	}
	return cleaned
}

// OutputFileName derives a default output file name from a job name
func OutputFileName(job, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return CleanFileName(job) + ext
}

// TruncateText shortens s to at most maxBytes bytes without splitting a
// rune, appending suffix when anything was cut.
func TruncateText(s string, maxBytes int, suffix string) string {
	if len(s) <= maxBytes {
		return s
	}
	if maxBytes < 0 {
		maxBytes = 0
	}
	if len(suffix) >= maxBytes {
		suffix = ""
	}
	limit := maxBytes - len(suffix)
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + suffix
}
