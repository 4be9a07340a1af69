package logging

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/user/clusterproxy/internal/config"
)

func TestSetupDefaultsToInfoOnBadLevel(t *testing.T) {
	Setup(config.LoggingConfig{Level: "not-a-level", Format: "json"})
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("GlobalLevel() = %v, want InfoLevel", zerolog.GlobalLevel())
	}
}

func TestSetupParsesExplicitLevel(t *testing.T) {
	Setup(config.LoggingConfig{Level: "debug", Format: "json"})
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("GlobalLevel() = %v, want DebugLevel", zerolog.GlobalLevel())
	}
}

func TestForClusterImplementsClusterLogger(t *testing.T) {
	base := Setup(config.LoggingConfig{Level: "info", Format: "json"})
	logger := ForCluster(base, 3)

	// Both calls must be safe no-ops from the caller's perspective;
	// zerolog writes to the configured writer, not to any test hook.
	logger.Debugf("thread %d starting", 3)
	logger.Errorf("thread %d failed: %v", 3, "boom")
}
