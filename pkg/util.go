package pkg

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// InitLog sends both the standard logger and the returned structured logger
// to the file at dest. The terminal belongs to the board, so nothing is
// logged to stderr.
func InitLog(dest, prefix string, debug bool) (zerolog.Logger, *os.File, error) {
	f, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("error opening log file: %w", err)
	}
	log.SetOutput(f)
	log.SetPrefix(prefix + ": ")

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(f).
		Level(level).
		With().
		Timestamp().
		Str("component", prefix).
		Logger()
	return logger, f, nil
}

// ConsoleLog is the human readable logger used by the server, which owns its
// terminal.
func ConsoleLog(prefix string, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Str("component", prefix).
		Logger()
}
