package gate

import (
	"fmt"
	"path"
	"strings"
)

// Hints renders the gate's critical asset list as HTTP Link header values:
// rel=preload for same-origin paths, rel=prefetch with crossorigin for
// absolute cross-origin URLs. The output order follows the configured list.
func (g *Gate) Hints() []string {
	hints := make([]string, 0, len(g.assets))
	for _, asset := range g.assets {
		hints = append(hints, LinkHint(asset))
	}
	return hints
}

// LinkHint renders a single resource URL as a Link header value.
func LinkHint(u string) string {
	rel := "preload"
	cross := ""
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		rel = "prefetch"
		cross = "; crossorigin"
	}

	as := assetKind(u)
	if as == "" {
		return fmt.Sprintf("<%s>; rel=%s%s", u, rel, cross)
	}
	return fmt.Sprintf("<%s>; rel=%s; as=%s%s", u, rel, as, cross)
}

// assetKind infers the Link "as" attribute from the URL's file extension.
func assetKind(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	switch path.Ext(u) {
	case ".css":
		return "style"
	case ".js", ".mjs":
		return "script"
	case ".woff", ".woff2", ".ttf", ".otf":
		return "font"
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico":
		return "image"
	default:
		return ""
	}
}
