package embed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"unfurl/internal/extractor"
	"unfurl/internal/fetch"
	"unfurl/internal/middleware"
	"unfurl/internal/platform"
)

// Extractor is the orchestrator surface the handler depends on.
type Extractor interface {
	ExtractMetadata(ctx context.Context, url string) (extractor.Metadata, error)
	GetOEmbed(ctx context.Context, url string, opts OEmbedOptions) (OEmbed, error)
	RenderEmbed(ctx context.Context, url string, opts extractor.RenderOptions) (string, error)
	CacheMaxAge() int
}

type Handler struct {
	service Extractor
}

func NewHandler(service Extractor) *Handler {
	return &Handler{service: service}
}

// Extract handles GET /api/extract.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawURL, ok := h.requireURL(ctx, w, r)
	if !ok {
		return
	}

	meta, err := h.service.ExtractMetadata(ctx, rawURL)
	if err != nil {
		h.writeServiceError(ctx, w, rawURL, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{
		"success":   true,
		"data":      meta,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// OEmbed handles GET /api/oembed.
func (h *Handler) OEmbed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawURL, ok := h.requireURL(ctx, w, r)
	if !ok {
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
	case "xml":
		h.writeError(ctx, w, "NOT_IMPLEMENTED", "xml format is not supported", http.StatusNotImplemented)
		return
	default:
		h.writeError(ctx, w, "VALIDATION_ERROR", fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
		return
	}

	maxWidth, err := dimensionParam(r, "maxwidth")
	if err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	maxHeight, err := dimensionParam(r, "maxheight")
	if err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	oe, err := h.service.GetOEmbed(ctx, rawURL, OEmbedOptions{MaxWidth: maxWidth, MaxHeight: maxHeight})
	if err != nil {
		h.writeServiceError(ctx, w, rawURL, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(oe); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// Render handles GET /api/render.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	rawURL := q.Get("url")
	if rawURL == "" {
		h.writeHTMLError(w, "Missing url parameter", http.StatusBadRequest)
		return
	}
	if !platform.IsEmbeddable(platform.Normalize(rawURL)) {
		h.writeHTMLError(w, "Only http and https URLs can be embedded", http.StatusBadRequest)
		return
	}

	width, err := dimensionParam(r, "width")
	if err != nil {
		h.writeHTMLError(w, err.Error(), http.StatusBadRequest)
		return
	}
	height, err := dimensionParam(r, "height")
	if err != nil {
		h.writeHTMLError(w, err.Error(), http.StatusBadRequest)
		return
	}

	theme := q.Get("theme")
	if theme != "" && theme != "light" && theme != "dark" {
		h.writeHTMLError(w, fmt.Sprintf("unknown theme %q", theme), http.StatusBadRequest)
		return
	}

	autoplay, _ := strconv.ParseBool(q.Get("autoplay"))
	controls := true
	if v := q.Get("controls"); v != "" {
		controls, err = strconv.ParseBool(v)
		if err != nil {
			h.writeHTMLError(w, "controls must be a boolean", http.StatusBadRequest)
			return
		}
	}

	markup, err := h.service.RenderEmbed(ctx, rawURL, extractor.RenderOptions{
		Width:    width,
		Height:   height,
		Autoplay: autoplay,
		Controls: controls,
		Theme:    theme,
	})
	if err != nil {
		slog.ErrorContext(ctx, "render failed", "url", rawURL, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidURL) {
			status = http.StatusBadRequest
		}
		h.writeHTMLError(w, "Unable to render embed for this URL", status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", h.service.CacheMaxAge()))
	if _, err := w.Write([]byte(markup)); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

// requireURL validates the url query parameter at the boundary: present,
// parseable, http or https.
func (h *Handler) requireURL(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "url parameter is required", http.StatusBadRequest)
		return "", false
	}
	if !platform.IsEmbeddable(platform.Normalize(rawURL)) {
		h.writeError(ctx, w, "VALIDATION_ERROR", "url must be http or https", http.StatusBadRequest)
		return "", false
	}
	return rawURL, true
}

// dimensionParam parses an optional pixel dimension in the 1-2000 range.
func dimensionParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if v < 1 || v > 2000 {
		return 0, fmt.Errorf("%s must be between 1 and 2000", name)
	}
	return v, nil
}

// writeServiceError maps orchestrator failures onto the HTTP contract:
// invalid input 400, no parser 422, timeout 408, unreachable host 404,
// anything else 500.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, rawURL string, err error) {
	switch {
	case errors.Is(err, ErrInvalidURL):
		h.writeError(ctx, w, "VALIDATION_ERROR", "invalid url", http.StatusBadRequest)
	case errors.Is(err, ErrNoParser):
		h.writeError(ctx, w, "UNSUPPORTED_CONTENT", "no suitable parser for url", http.StatusUnprocessableEntity)
	case fetch.IsTimeout(err):
		slog.ErrorContext(ctx, "extraction timed out", "url", rawURL, "error", err)
		h.writeError(ctx, w, "TIMEOUT", "target did not respond in time", http.StatusRequestTimeout)
	case isUnreachable(err):
		slog.ErrorContext(ctx, "target unreachable", "url", rawURL, "error", err)
		h.writeError(ctx, w, "UNREACHABLE", "target host is unreachable", http.StatusNotFound)
	default:
		slog.ErrorContext(ctx, "extraction failed", "url", rawURL, "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
	}
}

func isUnreachable(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func (h *Handler) writeHTMLError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html><html><body style="font-family:sans-serif;padding:24px"><h1>Embed unavailable</h1><p>%s</p></body></html>`, html.EscapeString(message))
}
