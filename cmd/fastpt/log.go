package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// newLogger returns the console logger used for diagnostics. Results are
// written to stdout, logs to w.
func newLogger(w io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "fastpt").Logger()
}

// setLogLevel returns log with the named level applied.
func setLogLevel(log zerolog.Logger, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return log, err
	}
	return log.Level(lvl), nil
}
