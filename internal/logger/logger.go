package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. Unknown levels fall back to info. Extra
// writers, such as a KafkaWriter, receive the JSON lines as well.
func New(level string, pretty bool, extra ...io.Writer) zerolog.Logger {
	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	if len(extra) > 0 {
		w = NewTee(w, extra...)
	}
	return NewWithWriter(w, level)
}

// NewTee writes every line to primary and to each extra writer.
func NewTee(primary io.Writer, extra ...io.Writer) io.Writer {
	return zerolog.MultiLevelWriter(append([]io.Writer{primary}, extra...)...)
}

func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("moduler", "cartstore").
		Logger()
}

func ParseLevel(level string) zerolog.Level {
	lv, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lv == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lv
}

// SetGlobalLevel changes the level of every logger at runtime, used on config reload.
func SetGlobalLevel(level string) zerolog.Level {
	lv := ParseLevel(level)
	zerolog.SetGlobalLevel(lv)
	return lv
}
