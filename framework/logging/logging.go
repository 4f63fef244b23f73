// Package logging builds the application's structured logger from config.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/km-arc/go-scopes/framework/config"
)

// New returns a logger writing to w, configured from cfg. Unknown levels
// fall back to info and unknown formats to text.
func New(cfg config.LogConfig, w io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          cfg.Prefix,
		ReportTimestamp: true,
		Formatter:       formatter(cfg.Format),
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func formatter(name string) log.Formatter {
	switch strings.ToLower(name) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
