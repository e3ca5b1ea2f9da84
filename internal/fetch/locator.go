package fetch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/opencontainers/go-digest"
)

// ExpectedDigest returns the digest encoded in the fragment of locator. Fragments that do
// not look like a digest are ignored.
func ExpectedDigest(locator string) (digest.Digest, error) {
	u, err := url.Parse(locator)
	if err != nil || u.Fragment == "" || !strings.Contains(u.Fragment, ":") {
		return "", nil
	}
	dig, err := digest.Parse(u.Fragment)
	if err != nil {
		return "", fmt.Errorf("invalid digest in locator %q: %w", locator, err)
	}
	return dig, nil
}

// stripFragment removes the fragment of locator.
func stripFragment(locator string) string {
	if i := strings.IndexByte(locator, '#'); i >= 0 {
		return locator[:i]
	}
	return locator
}

func scheme(locator string) string {
	u, err := url.Parse(locator)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}
