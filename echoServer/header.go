package echoServer

import (
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"httpecho/journal/models"
)

// parseHead extracts header lines, in order, from a raw request head.
func parseHead(head []byte) (models.Header, bool) {
	lines := strings.Split(string(head), "\n")
	if len(lines) < 2 {
		return nil, false
	}

	h := models.Header{}
	for _, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			break
		}

		// obsolete line folding
		if line[0] == ' ' || line[0] == '\t' {
			if len(h) == 0 {
				return nil, false
			}
			h[len(h)-1].Value += " " + strings.TrimSpace(line)
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, false
		}
		h = append(h, models.Field{
			Name:  textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(key)),
			Value: strings.TrimSpace(value),
		})
	}

	return h, true
}

// headerFromRequest rebuilds a header list when no raw head is available:
// Host first, then the remaining headers sorted by name.
func headerFromRequest(r *http.Request) models.Header {
	h := models.Header{}
	if r.Host != "" {
		h = append(h, models.Field{Name: "Host", Value: r.Host})
	}

	keys := make([]string, 0, len(r.Header))
	for key := range r.Header {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, value := range r.Header[key] {
			h = append(h, models.Field{Name: key, Value: value})
		}
	}

	return h
}
