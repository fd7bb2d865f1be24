package platform

import (
	"net/url"
	"strings"
)

// trackingParams are campaign/click-id/referrer style query keys stripped
// during normalization.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"utm_id":       true,
	"fbclid":       true,
	"gclid":        true,
	"dclid":        true,
	"msclkid":      true,
	"igshid":       true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref_src":      true,
	"ref_url":      true,
}

// Normalize defaults the scheme to https, strips tracking parameters and
// re-serializes the URL. A URL that fails to parse is returned unchanged.
func Normalize(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return rawURL
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	changed := false
	for key := range q {
		if trackingParams[strings.ToLower(key)] {
			q.Del(key)
			changed = true
		}
	}
	if changed || u.RawQuery != "" {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// IsValid reports whether the string parses as an absolute URL with a host.
func IsValid(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// IsEmbeddable reports whether the URL scheme is http or https.
func IsEmbeddable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
