// Package sanitize provides text sanitization utilities.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	// nonAlnumRegex matches everything outside [a-z0-9]
	nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	// Decode common HTML entities
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes a string for safe text storage by stripping HTML
// and normalizing whitespace. Use for user-provided fields like names,
// cities, and free-form notes arriving from webhooks.
func Text(s string) string {
	return StripHTML(s)
}

// ChannelName lowercases the input and strips everything that is not a
// letter or digit, producing a token usable inside a Slack channel name.
func ChannelName(s string) string {
	return nonAlnumRegex.ReplaceAllString(strings.ToLower(s), "")
}
