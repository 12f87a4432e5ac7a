package tracker

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const logTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// NewLogger builds the console logger used by the whole process.
func NewLogger(debug bool) zerolog.Logger {
	return newLoggerTo(os.Stderr, debug)
}

func newLoggerTo(w io.Writer, debug bool) zerolog.Logger {
	zerolog.ErrorFieldName = "err"
	lvl := zerolog.InfoLevel
	if debug {
		lvl = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: logTimeFormat}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}
