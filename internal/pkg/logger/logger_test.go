package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"dispatch/internal/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextFieldsAndComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.Options{ServiceName: "dispatch", Level: zerolog.DebugLevel, Output: buf}).
		Component("finish_run")

	ctx := log.WithRequestID(context.Background(), "req-1")
	ctx = log.WithFields(ctx, map[string]any{"run_id": "r-1"})
	log.Error(ctx, "fulfillment failed", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dispatch", entry["service"])
	assert.Equal(t, "finish_run", entry["component"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "r-1", entry["run_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "error", entry["level"])
}

func TestLogger_LevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.Options{Level: zerolog.WarnLevel, Output: buf})

	log.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel("chatty"))
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel(" DEBUG "))
}
