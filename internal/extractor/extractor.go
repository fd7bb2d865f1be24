// Package extractor turns URLs into normalized preview metadata. Each
// platform ships one Extractor; Generic is the unconditional fallback.
package extractor

import (
	"context"
	"errors"
	"fmt"

	"unfurl/internal/platform"
)

type ContentType string

const (
	TypeVideo   ContentType = "video"
	TypeImage   ContentType = "image"
	TypeArticle ContentType = "article"
	TypeAudio   ContentType = "audio"
	TypeLink    ContentType = "link"
)

// Entity identifies an author or hosting provider.
type Entity struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// EmbedData is present only when the producing extractor supports direct
// in-app playback.
type EmbedData struct {
	VideoID  string `json:"videoId"`
	EmbedURL string `json:"embedUrl"`
}

// Metadata is the canonical extracted-content record. Type, Platform and
// URL are always set.
type Metadata struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Image       string            `json:"image,omitempty"`
	Favicon     string            `json:"favicon,omitempty"`
	Type        ContentType       `json:"type"`
	Platform    platform.Platform `json:"platform"`
	URL         string            `json:"url"`
	Width       int               `json:"width,omitempty"`
	Height      int               `json:"height,omitempty"`
	Author      *Entity           `json:"author,omitempty"`
	Provider    *Entity           `json:"provider,omitempty"`
	EmbedData   *EmbedData        `json:"embedData,omitempty"`
}

// RenderOptions controls embed HTML generation. Zero Width/Height defer to
// metadata dimensions, then to the service defaults.
type RenderOptions struct {
	Width    int
	Height   int
	Autoplay bool
	Controls bool
	Theme    string
}

// Extractor is the per-platform extraction strategy.
type Extractor interface {
	Name() platform.Platform

	// CanHandle reports whether this strategy accepts the URL.
	CanHandle(url string) bool

	// Extract produces metadata for the URL. Platform extractors return a
	// staged *Error on hard failures; Generic degrades and never fails.
	Extract(ctx context.Context, url string) (Metadata, error)

	// RenderHTML produces a self-contained markup fragment or document for
	// the metadata.
	RenderHTML(meta Metadata, opts RenderOptions) string
}

// ErrUnsupportedURL marks a URL that matched a platform signature but
// carries no extractable content ID.
var ErrUnsupportedURL = errors.New("url is not valid for this platform")

// Error is a traceable extraction failure carrying the platform and the
// stage (classify, fetch, parse) that failed.
type Error struct {
	Platform platform.Platform
	Stage    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("platform=%s stage=%s: %v", e.Platform, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
