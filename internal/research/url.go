package research

import (
	"crypto/sha256"
	"fmt"
	"net/url"
)

// NormalizeURL strips tracking parameters and the fragment before hashing
// so the same logical resource always produces the same UUID12.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, k := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term", "ref", "context", "source"} {
		q.Del(k)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}

// UUID12 returns the first 12 hex characters of SHA-256(normalizedURL),
// used to deduplicate resources across searches.
func UUID12(rawURL string) string {
	sum := sha256.Sum256([]byte(NormalizeURL(rawURL)))
	return fmt.Sprintf("%x", sum)[:12]
}
