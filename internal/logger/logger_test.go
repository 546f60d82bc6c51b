package logger

import (
	"log/slog"
	"testing"

	"github.com/novelreads-coin-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_LevelParsing(t *testing.T) {
	cases := []struct {
		level   string
		enabled slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // Falls back to info
		{"", slog.LevelInfo},
	}

	for _, tc := range cases {
		t.Run("level_"+tc.level, func(t *testing.T) {
			cfg := &config.Config{
				Application: config.ApplicationConfig{Name: "coin-ledger-test"},
				Logging:     config.LoggingConfig{Level: tc.level},
			}

			log := NewLogger(cfg)
			require.NotNil(t, log)

			assert.True(t, log.Enabled(nil, tc.enabled))
			if tc.enabled > slog.LevelDebug {
				assert.False(t, log.Enabled(nil, tc.enabled-4))
			}
		})
	}
}
