package face

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/viant/faceid/config"
)

// NewLogger builds the service logger from the configured level and format,
// writing to stderr.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	return newLogger(os.Stderr, cfg)
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, options)
	} else {
		handler = slog.NewTextHandler(w, options)
	}
	return slog.New(handler).With("component", "faceid"), nil
}
