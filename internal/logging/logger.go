// Package logging builds the gateway's JSON loggers. Each subsystem gets its
// own logger tagged with a component attribute.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// DefaultComponent tags records from loggers built without a component.
const DefaultComponent = "gateway"

type Options struct {
	Level     string
	Writer    io.Writer
	Component string
}

func NewLogger(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	component := strings.TrimSpace(opts.Component)
	if component == "" {
		component = DefaultComponent
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	return slog.New(handler.WithAttrs([]slog.Attr{slog.String("component", component)}))
}

// ParseLevel accepts slog level names, offsets such as "debug+2" included,
// plus "warning". Unknown values log at info.
func ParseLevel(level string) slog.Level {
	name := strings.TrimSpace(level)
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return l
}
