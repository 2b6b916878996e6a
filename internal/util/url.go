package util

import (
	"net/url"
	"strings"
)

// IsSafeRedirectPath reports whether path is a same-origin relative path
// that can be used as a post-auth redirect. Only paths starting with a
// single "/" are allowed.
func IsSafeRedirectPath(path string) bool {
	if path == "" {
		return false
	}

	// Header injection
	if strings.ContainsAny(path, "\r\n") {
		return false
	}

	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Protocol-relative URLs like "//evil.com"
	if strings.HasPrefix(path, "//") {
		return false
	}
	// Backslash variations like "/\evil.com"
	if strings.Contains(path, "\\") {
		return false
	}

	parsed, err := url.Parse(path)
	if err != nil {
		return false
	}
	return parsed.Scheme == "" && parsed.Host == ""
}

// AppendQuery appends key/value pairs to the query string of target in
// the order given, keeping any query parameters already present.
func AppendQuery(target string, kv ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv[i]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv[i+1]))
	}
	if b.Len() == 0 {
		return target
	}

	base, fragment, hasFragment := strings.Cut(target, "#")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	out := base + sep + b.String()
	if hasFragment {
		out += "#" + fragment
	}
	return out
}
