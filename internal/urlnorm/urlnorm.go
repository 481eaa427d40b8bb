// Package urlnorm canonicalizes raw URL strings into crawl locations.
// Normalization is deterministic and idempotent: normalizing an already
// normalized location returns it unchanged, which is what makes the
// frontier's dedup set reliable.
package urlnorm

import (
	"fmt"
	"net/url"
	"strings"

	"termcrawl/pkg/errors"
)

// Normalize converts a raw URL into a canonical crawl location: scheme and
// host defaulting, lower-cased scheme and host, default ports and
// fragments stripped.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", errors.ErrInvalidInput)
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if strings.HasPrefix(raw, "www.") {
			raw = "https://" + raw
		} else {
			raw = "https://www." + raw
		}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	} else if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String(), nil
}
