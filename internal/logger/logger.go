// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"webpeel/internal/config"
)

// Init configures the global zerolog logger from config. Console output
// is the default; JSON output is used when cfg.JSON is set.
func Init(cfg config.LoggingConfig) {
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil && cfg.Level != "" {
		level = l
	}
	zerolog.SetGlobalLevel(level)

	if cfg.JSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
