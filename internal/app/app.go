// Package app wires configuration, the extractor pipeline and the HTTP
// surface into a runnable application.
package app

import (
	"net/http"

	"unfurl/features/embed"
	"unfurl/internal/config"
	"unfurl/internal/extractor"
	"unfurl/internal/fetch"
	"unfurl/internal/middleware"
)

type App struct {
	Handler http.Handler
	Service *embed.Service
}

func New(cfg *config.Config) *App {
	client := fetch.NewClient(fetch.Options{
		UserAgent:     cfg.UserAgent,
		PageTimeout:   cfg.FetchTimeout(),
		OEmbedTimeout: cfg.OEmbedTimeout(),
		MaxRedirects:  cfg.MaxRedirects,
		MaxBodyBytes:  cfg.MaxBodySizeMB << 20,
	})

	generic := extractor.NewGeneric(client)
	generic.MergeTwitterImage = cfg.MergeTwitterImage

	// Specific platforms first, generic last; this order is the dispatch
	// priority.
	service := embed.NewService(
		embed.Options{
			DefaultWidth:  cfg.DefaultEmbedWidth,
			DefaultHeight: cfg.DefaultEmbedHeight,
			CacheMaxAge:   cfg.EmbedCacheMaxAge,
		},
		extractor.NewYouTube(client),
		extractor.NewVimeo(client),
		generic,
	)
	handler := embed.NewHandler(service)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes. Each path is registered for OPTIONS as well so preflight
	// requests reach enableCORS instead of the mux's own 405.
	mux := http.NewServeMux()
	register := func(pattern string, fn http.HandlerFunc) {
		h := middleware.CorrelationID(enableCORS(fn))
		mux.Handle("GET "+pattern, h)
		mux.Handle("OPTIONS "+pattern, h)
	}
	register("/api/extract", handler.Extract)
	register("/api/oembed", handler.OEmbed)
	register("/api/render", handler.Render)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler: mux,
		Service: service,
	}
}
