package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	log.Error(ctx, "boom", errors.New("boom"))

	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"stack"`)
}

func TestLoggerDebugRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: buf})

	log.Debug(context.Background(), "executing sql statement", map[string]any{"sql": "SELECT 1"})
	require.Empty(t, buf.String())

	log = New(Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: buf})
	log.Debug(context.Background(), "executing sql statement", map[string]any{"sql": "SELECT 1"})
	assert.Contains(t, buf.String(), `"sql":"SELECT 1"`)
}

func TestLoggerWithJobAttachesField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})

	ctx := log.WithJob(context.Background(), "catalog-sync")
	log.Info(ctx, "job start")

	assert.Contains(t, buf.String(), `"job":"catalog-sync"`)
	assert.Contains(t, buf.String(), `"service":"test"`)
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Info(context.Background(), "ignored")
	log.Debug(context.Background(), "ignored", nil)
}
