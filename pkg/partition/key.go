package partition

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key generates the deterministic request-identity string for a URL.
// Format: scheme://host/path with query parameters sorted for determinism.
//
// Example:
//
//	https://cdn.example.com/lib.js?b=2&a=1 -> https://cdn.example.com/lib.js?a=1&b=2
func Key(u *url.URL) string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(u.Host)

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	b.WriteString(path)

	query := u.Query()
	if len(query) > 0 {
		queryKeys := make([]string, 0, len(query))
		for key := range query {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		parts := make([]string, 0, len(queryKeys))
		for _, key := range queryKeys {
			for _, val := range query[key] {
				parts = append(parts, fmt.Sprintf("%s=%s", key, val))
			}
		}
		b.WriteString("?")
		b.WriteString(strings.Join(parts, "&"))
	}

	return b.String()
}
