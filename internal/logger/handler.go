// Package logger wires correlation IDs into slog output.
package logger

import (
	"context"
	"io"
	"log/slog"

	"unfurl/internal/middleware"
)

type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(middleware.CorrelationKey).(string); ok && id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

// New builds the service logger: JSON output with correlation IDs.
func New(w io.Writer) *slog.Logger {
	return slog.New(NewContextHandler(slog.NewJSONHandler(w, nil)))
}
