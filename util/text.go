package util

import (
	"regexp"
	"strings"
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeText prepares message text for trigger matching.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Slugify derives the URL-safe form of a flow name: lowercased, runs of
// non-alphanumerics collapsed to single hyphens.
func Slugify(name string) string {
	slug := nonAlnumRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
