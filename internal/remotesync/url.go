package remotesync

import (
	"strings"
)

const (
	// DocumentSuffix is appended to every resource path that lacks it.
	DocumentSuffix = ".json"

	// AuthParam is the query parameter carrying the shared secret.
	AuthParam = "auth"

	redacted = "REDACTED"
)

// BuildURL returns the URL of the document at path on host.
//
// Exactly one "/" separates host and path, the path always ends in
// DocumentSuffix, and when secret is non-empty "?auth=<secret>" is the last
// component. The secret is appended as given, without escaping.
func BuildURL(host, path, secret string) string {
	var b strings.Builder
	b.Grow(len(host) + len(path) + len(DocumentSuffix) + len(secret) + 8)

	b.WriteString(host)
	if !strings.HasSuffix(host, "/") {
		b.WriteByte('/')
	}

	path = strings.TrimLeft(path, "/")
	b.WriteString(path)
	if !strings.HasSuffix(path, DocumentSuffix) {
		b.WriteString(DocumentSuffix)
	}

	if secret != "" {
		b.WriteString("?" + AuthParam + "=")
		b.WriteString(secret)
	}
	return b.String()
}

// RedactURL hides the auth token of a URL produced by BuildURL so it can be
// logged.
func RedactURL(u string) string {
	i := strings.LastIndex(u, "?"+AuthParam+"=")
	if i < 0 {
		return u
	}
	return u[:i] + "?" + AuthParam + "=" + redacted
}
