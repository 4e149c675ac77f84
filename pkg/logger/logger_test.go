package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	testCases := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			New(Config{Level: tc.level})
			assert.Equal(t, tc.expected, zerolog.GlobalLevel())
		})
	}
}

func TestNewWritesStructuredOutput(t *testing.T) {
	log := New(Config{Level: "info"})

	var buf bytes.Buffer
	log = log.Output(&buf)
	log.Info().Str("key", "value").Msg("test message")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, `"key":"value"`)
}

func TestErrorLevelFiltersLower(t *testing.T) {
	log := New(Config{Level: "error"})

	var buf bytes.Buffer
	log = log.Output(&buf)

	log.Info().Msg("should not appear")
	assert.NotContains(t, buf.String(), "should not appear")

	log.Error().Msg("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestPrettyOutput(t *testing.T) {
	log := New(Config{Level: "info", Pretty: true})

	var buf bytes.Buffer
	log = log.Output(&buf)
	log.Info().Msg("pretty message")

	assert.Contains(t, buf.String(), "pretty message")
}
