// Package logging wires up zerolog the way
// minis/50-mini-service-all-features/cmd/service/main.go's setupLogger
// does, and adapts it to the small Logger interface internal/cluster
// depends on.
package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/user/clusterproxy/internal/cluster"
	"github.com/user/clusterproxy/internal/config"
)

// Setup parses cfg.Level (defaulting to info on a bad value), sets the
// global zerolog level, and returns a console or JSON writer depending
// on cfg.Format.
func Setup(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// clusterLogger adapts a zerolog.Logger to cluster.Logger.
type clusterLogger struct {
	logger zerolog.Logger
}

// ForCluster wraps logger for use as the topology's debug/error sink,
// tagging every line with the owning thread ID.
func ForCluster(logger zerolog.Logger, threadID int) cluster.Logger {
	return &clusterLogger{logger: logger.With().Int("thread", threadID).Logger()}
}

func (l *clusterLogger) Debugf(format string, args ...any) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *clusterLogger) Errorf(format string, args ...any) {
	l.logger.Error().Msgf(format, args...)
}
