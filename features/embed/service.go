// Package embed orchestrates URL classification, metadata extraction and
// embed generation, and exposes them over HTTP.
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"unfurl/internal/extractor"
	"unfurl/internal/platform"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNoParser   = errors.New("no suitable parser")
)

// Service selects extractors in fixed priority order (specific platforms
// first, generic last) and applies the generic retry safety net. It holds
// no mutable state; concurrent requests share nothing.
type Service struct {
	extractors []extractor.Extractor

	defaultWidth  int
	defaultHeight int
	cacheMaxAge   int
}

type Options struct {
	DefaultWidth  int
	DefaultHeight int
	CacheMaxAge   int
}

// NewService builds the orchestrator. Extractors are consulted in argument
// order; the last one is expected to be the unconditional generic fallback.
func NewService(opts Options, extractors ...extractor.Extractor) *Service {
	if opts.DefaultWidth <= 0 {
		opts.DefaultWidth = 500
	}
	if opts.DefaultHeight <= 0 {
		opts.DefaultHeight = 300
	}
	if opts.CacheMaxAge <= 0 {
		opts.CacheMaxAge = 3600
	}
	return &Service{
		extractors:    extractors,
		defaultWidth:  opts.DefaultWidth,
		defaultHeight: opts.DefaultHeight,
		cacheMaxAge:   opts.CacheMaxAge,
	}
}

// CacheMaxAge is the render-response cache lifetime in seconds.
func (s *Service) CacheMaxAge() int { return s.cacheMaxAge }

// ExtractMetadata validates and normalizes the URL, runs the first matching
// extractor, and retries once with the generic fallback when a platform
// extractor fails. Callers receive an error only for invalid URLs or when
// even generic extraction is impossible.
func (s *Service) ExtractMetadata(ctx context.Context, rawURL string) (extractor.Metadata, error) {
	normalized := platform.Normalize(rawURL)
	if !platform.IsValid(normalized) || !platform.IsEmbeddable(normalized) {
		return extractor.Metadata{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	sel := s.match(normalized)
	if sel == nil {
		return extractor.Metadata{}, ErrNoParser
	}

	meta, err := sel.Extract(ctx, normalized)
	if err == nil {
		return meta, nil
	}
	if sel.Name() == platform.Generic {
		return extractor.Metadata{}, err
	}

	slog.WarnContext(ctx, "platform extraction failed, retrying with generic",
		"platform", sel.Name(), "url", normalized, "error", err)

	generic := s.byName(platform.Generic)
	if generic == nil {
		return extractor.Metadata{}, err
	}
	return generic.Extract(ctx, normalized)
}

// OEmbedOptions carries the caller-requested maximum dimensions.
type OEmbedOptions struct {
	MaxWidth  int
	MaxHeight int
}

// GetOEmbed wraps extraction output in an oEmbed 1.0 envelope.
func (s *Service) GetOEmbed(ctx context.Context, rawURL string, opts OEmbedOptions) (OEmbed, error) {
	meta, err := s.ExtractMetadata(ctx, rawURL)
	if err != nil {
		return OEmbed{}, err
	}

	renderer := s.byName(meta.Platform)
	if renderer == nil {
		renderer = s.byName(platform.Generic)
	}
	if renderer == nil {
		return OEmbed{}, ErrNoParser
	}

	width, height := s.resolveSize(opts.MaxWidth, opts.MaxHeight, meta)
	html := renderer.RenderHTML(meta, extractor.RenderOptions{
		Width:    width,
		Height:   height,
		Controls: true,
	})
	return s.envelope(meta, html, width, height), nil
}

// RenderEmbed returns the raw embed HTML with no envelope.
func (s *Service) RenderEmbed(ctx context.Context, rawURL string, opts extractor.RenderOptions) (string, error) {
	meta, err := s.ExtractMetadata(ctx, rawURL)
	if err != nil {
		return "", err
	}

	renderer := s.byName(meta.Platform)
	if renderer == nil {
		renderer = s.byName(platform.Generic)
	}
	if renderer == nil {
		return "", ErrNoParser
	}

	opts.Width, opts.Height = s.resolveSize(opts.Width, opts.Height, meta)
	return renderer.RenderHTML(meta, opts), nil
}

// resolveSize applies the dimension precedence: explicit option, then
// metadata, then the configured defaults.
func (s *Service) resolveSize(width, height int, meta extractor.Metadata) (int, int) {
	if width <= 0 {
		width = meta.Width
	}
	if height <= 0 {
		height = meta.Height
	}
	if width <= 0 {
		width = s.defaultWidth
	}
	if height <= 0 {
		height = s.defaultHeight
	}
	return width, height
}

func (s *Service) match(rawURL string) extractor.Extractor {
	for _, e := range s.extractors {
		if e.CanHandle(rawURL) {
			return e
		}
	}
	return nil
}

func (s *Service) byName(p platform.Platform) extractor.Extractor {
	for _, e := range s.extractors {
		if e.Name() == p {
			return e
		}
	}
	return nil
}
