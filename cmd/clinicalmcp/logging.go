package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/i2y/clinicalmcp/configs"
)

// newLogger builds the process logger. In stdio mode stdout carries the
// protocol, so records go to cfg.LogFile or nowhere.
func newLogger(cfg *configs.Config, stderr io.Writer) (*slog.Logger, func()) {
	out := stderr
	closeFn := func() {}
	if cfg.Transport == "stdio" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			out = io.Discard
		} else {
			out = f
			closeFn = func() { _ = f.Close() }
		}
	}
	return slog.New(newHandler(cfg.LogFormat, out, cfg.ParsedLogLevel())), closeFn
}

func newHandler(format string, w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "json":
		return slog.NewJSONHandler(w, opts)
	case "color":
		return newColorHandler(w, level)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

var levelColors = map[slog.Level]*color.Color{
	slog.LevelDebug: color.New(color.Faint),
	slog.LevelInfo:  color.New(color.FgGreen),
	slog.LevelWarn:  color.New(color.FgYellow),
	slog.LevelError: color.New(color.FgRed, color.Bold),
}

// colorHandler writes one line per record: time, level, message, then
// key=value attributes with dimmed keys.
type colorHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	prefix string
	attrs  []slog.Attr
	key    *color.Color
}

func newColorHandler(w io.Writer, level slog.Leveler) *colorHandler {
	return &colorHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
		key:   color.New(color.FgCyan, color.Faint),
	}
}

func (h *colorHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Format("15:04:05.000"))
		b.WriteByte(' ')
	}
	lc, ok := levelColors[r.Level]
	if !ok {
		lc = color.New(color.Reset)
	}
	b.WriteString(lc.Sprintf("%-5s", r.Level.String()))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		h.writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *colorHandler) writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := prefix + a.Key + "."
		for _, ga := range a.Value.Group() {
			h.writeAttr(b, group, ga)
		}
		return
	}
	fmt.Fprintf(b, " %s=%v", h.key.Sprint(prefix+a.Key), a.Value.Any())
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}
