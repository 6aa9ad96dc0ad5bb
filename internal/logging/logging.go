// Package logging provides a slog.Handler tailored to the CLIs: plain
// timestamped lines on stderr, with an optional log file mirroring every
// record that passes the handler's level.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler writes slog records as single timestamped lines to stderr, and
// additionally to file if one was given.
type Handler struct {
	file  io.Writer
	inner slog.Handler
	mu    *sync.Mutex
}

// NewHandler returns a Handler logging at opts' level to stderr, and also to
// file if file is non-nil.
func NewHandler(file io.Writer, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		file:  file,
		inner: slog.NewTextHandler(io.Discard, opts),
		mu:    &sync.Mutex{},
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{file: h.file, inner: h.inner.WithAttrs(attrs), mu: h.mu}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{file: h.file, inner: h.inner.WithGroup(name), mu: h.mu}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if !h.inner.Enabled(ctx, r.Level) {
		return nil
	}

	parts := []string{r.Time.Format("15:04:05"), r.Level.String() + ":", r.Message}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})
	line := strings.Join(parts, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := os.Stderr.WriteString(line); err != nil {
		return err
	}
	if h.file != nil {
		_, err := h.file.Write([]byte(line))
		return err
	}
	return nil
}
