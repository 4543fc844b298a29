// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects the log output.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	File   string // optional; appended to in addition to stderr
	Out    io.Writer
}

// Init installs the global logger. The returned close func releases the log
// file, if any.
func Init(opts Options) (func() error, error) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	closeFn := func() error { return nil }

	var file *os.File
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closeFn, fmt.Errorf("open log file: %w", err)
		}
		file = f
		closeFn = f.Close
	}

	if opts.Format == "json" {
		var w io.Writer = out
		if file != nil {
			w = zerolog.MultiLevelWriter(out, file)
		}
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		var w io.Writer = console(out, false)
		if file != nil {
			w = zerolog.MultiLevelWriter(w, console(file, true))
		}
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(ParseLevel(opts.Level))
	return closeFn, nil
}

func console(w io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    noColor,
	}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
