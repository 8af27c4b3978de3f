package catalog

import "strings"

// DefaultPosterPath is served when an entry has no poster.
const DefaultPosterPath = "/uploads/default-placeholder.jpg"

// ResolvePosterURL turns a stored poster reference into an absolute URL.
// Absolute http(s) references point at external storage and pass through
// unchanged; local paths are joined onto baseURL; an empty reference
// resolves to the placeholder image.
func ResolvePosterURL(ref, baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if ref == "" {
		return base + DefaultPosterPath
	}
	if isAbsoluteURL(ref) {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return base + ref
}

func isAbsoluteURL(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
