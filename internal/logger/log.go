package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string, err error)
	Debug(msg string)
}

type GameroomLogger struct {
	logger zerolog.Logger
}

// SetLevel sets the global level for every named logger, e.g. "info".
func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

func New(loggerName string) Logger {
	return newWithWriter(loggerName, zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})
}

// Nop discards everything. Used by tests.
func Nop() Logger {
	return GameroomLogger{zerolog.Nop()}
}

func newWithWriter(loggerName string, w io.Writer) Logger {
	logger := zerolog.New(w).With().Timestamp().Str("logger", loggerName).Logger()
	return GameroomLogger{logger}
}

func (gl GameroomLogger) Info(msg string) {
	gl.logger.Info().Msg(msg)
}

func (gl GameroomLogger) Warn(msg string) {
	gl.logger.Warn().Msg(msg)
}

func (gl GameroomLogger) Error(msg string, err error) {
	if err != nil {
		gl.logger.Error().Err(err).Msg(msg)
		return
	}
	gl.logger.Error().Msg(msg)
}

func (gl GameroomLogger) Debug(msg string) {
	gl.logger.Debug().Msg(msg)
}
