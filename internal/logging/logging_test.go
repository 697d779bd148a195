package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRunAddsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, id := WithRun(zerolog.New(&buf))
	logger.Info().Msg("hello")

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, id, event["run_id"])
}

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger(Config{Level: "WARN"})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger = NewLogger(Config{Level: "bogus"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestOutputSelection(t *testing.T) {
	assert.Equal(t, os.Stdout, output("stdout"))
	assert.Equal(t, os.Stderr, output(""))
	assert.Equal(t, os.Stderr, output("stderr"))
}
