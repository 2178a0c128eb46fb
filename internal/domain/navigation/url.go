package navigation

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL trims raw and adds https:// when no scheme is given. about:
// and data: style opaque URLs pass through unchanged.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return "", fmt.Errorf("%w: %q contains whitespace", ErrInvalidURL, s)
	}

	if !strings.Contains(s, "://") && !isOpaque(s) {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("%w: %q has no scheme", ErrInvalidURL, s)
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidURL, s)
	}
	return u.String(), nil
}

func isOpaque(s string) bool {
	for _, scheme := range []string{"about:", "data:", "file:", "mailto:", "javascript:"} {
		if strings.HasPrefix(strings.ToLower(s), scheme) {
			return true
		}
	}
	return false
}
