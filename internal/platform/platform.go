// Package platform classifies URLs against known platform signatures and
// normalizes them for extraction.
package platform

import "regexp"

type Platform string

const (
	YouTube Platform = "youtube"
	Vimeo   Platform = "vimeo"
	Generic Platform = "generic"
)

// detectOrder is the fixed evaluation priority. Specific platforms are tried
// in this order; Generic is the implicit catch-all and is never listed.
var detectOrder = []Platform{YouTube, Vimeo}

// signatures maps each platform to its ordered URL signature list.
// Patterns tolerate www., mobile and short-domain variants.
var signatures = map[Platform][]*regexp.Regexp{
	YouTube: {
		regexp.MustCompile(`(?i)^https?://(?:www\.|m\.)?youtube\.com/`),
		regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube-nocookie\.com/`),
		regexp.MustCompile(`(?i)^https?://youtu\.be/`),
	},
	Vimeo: {
		regexp.MustCompile(`(?i)^https?://(?:www\.)?vimeo\.com/`),
		regexp.MustCompile(`(?i)^https?://player\.vimeo\.com/`),
	},
}

// idPatterns maps each platform with a stable per-post identifier to its
// ordered ID capture list. The first captured group of the first matching
// pattern wins.
var idPatterns = map[Platform][]*regexp.Regexp{
	YouTube: {
		regexp.MustCompile(`(?i)[?&]v=([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`(?i)youtu\.be/([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`(?i)youtube(?:-nocookie)?\.com/(?:embed|shorts|v|live)/([A-Za-z0-9_-]{11})`),
	},
	Vimeo: {
		regexp.MustCompile(`(?i)player\.vimeo\.com/video/(\d+)`),
		regexp.MustCompile(`(?i)vimeo\.com/(?:video/)?(\d+)`),
	},
}

// Detect returns the first platform whose signature matches the URL, or
// Generic when nothing specific matches.
func Detect(rawURL string) Platform {
	for _, p := range detectOrder {
		for _, sig := range signatures[p] {
			if sig.MatchString(rawURL) {
				return p
			}
		}
	}
	return Generic
}

// VideoID extracts the platform-native content identifier from the URL.
// The second return is false when the platform has no ID patterns or none
// of them match.
func VideoID(p Platform, rawURL string) (string, bool) {
	for _, pat := range idPatterns[p] {
		if m := pat.FindStringSubmatch(rawURL); len(m) > 1 {
			return m[1], true
		}
	}
	return "", false
}
