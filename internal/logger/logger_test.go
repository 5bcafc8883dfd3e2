package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/courierhub-platform/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"Debug", "debug", slog.LevelDebug},
		{"Info", "info", slog.LevelInfo},
		{"Warn", "warn", slog.LevelWarn},
		{"Error", "error", slog.LevelError},
		{"MixedCase", "DEBUG", slog.LevelDebug},
		{"Unknown", "verbose", slog.LevelInfo},
		{"Empty", "", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseLevel(tc.input))
		})
	}
}

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name              string
		logLevel          string
		expectedSlogLevel slog.Level
	}{
		{"DebugLevel", "debug", slog.LevelDebug},
		{"InfoLevel", "info", slog.LevelInfo},
		{"WarnLevel", "warn", slog.LevelWarn},
		{"ErrorLevel", "error", slog.LevelError},
		{"DefaultToInfo", "unknown", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{
				Application: config.ApplicationConfig{Name: "courierhub-test"},
				Logging:     config.LoggingConfig{Level: tc.logLevel},
			}

			logger := NewLogger(cfg)
			require.NotNil(t, logger)

			assert.True(t, logger.Enabled(context.Background(), tc.expectedSlogLevel), "Logger should be enabled for level "+tc.expectedSlogLevel.String())

			// Levels cascade: a debug logger also accepts info records
			if tc.expectedSlogLevel == slog.LevelDebug {
				assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo), "Logger set to Debug should also enable Info")
			}
		})
	}
}
