package driver

import (
	"io"

	"github.com/rs/zerolog"
)

// NewLogger returns a console logger at the configured level.
func (c *Config) NewLogger(w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if c.LogLevel != "" {
		var err error
		if level, err = zerolog.ParseLevel(c.LogLevel); err != nil {
			return zerolog.Nop(), err
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger(), nil
}
