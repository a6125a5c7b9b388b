// Package urlutils provides URL and slug helpers shared by the scrapers.
package urlutils

import (
	"net/url"
	"regexp"
	"strings"
)

// IsValidURL checks if a URL is valid
func IsValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// ResolveURL resolves a relative URL against a base URL
// If the URL is already absolute, it returns it unchanged
func ResolveURL(baseURL, relativeURL string) (string, error) {
	rel, err := url.Parse(relativeURL)
	if err != nil {
		return "", err
	}

	if rel.IsAbs() {
		return relativeURL, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(rel).String(), nil
}

// LastPathSegment returns the final non-empty path segment of a link, or ""
// when there is none. Query strings and fragments are ignored.
func LastPathSegment(link string) string {
	if u, err := url.Parse(link); err == nil {
		link = u.Path
	}
	parts := strings.FieldsFunc(link, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases s and joins its alphanumeric runs with dashes.
func Slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// WikiTitle turns a display name into a Wikipedia article title.
func WikiTitle(name string) string {
	return strings.Join(strings.Fields(name), "_")
}
