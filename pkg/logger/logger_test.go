package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogger(t *testing.T) {
	t.Run("falls back to global entry", func(t *testing.T) {
		entry := GetLogger(context.Background())
		require.NotNil(t, entry)
		assert.Equal(t, L.Logger, entry.Logger)
	})

	t.Run("returns entry from context", func(t *testing.T) {
		custom := logrus.NewEntry(logrus.New()).WithField("component", "test")
		ctx := WithLogger(context.Background(), custom)

		entry := GetLogger(ctx)
		assert.Equal(t, "test", entry.Data["component"])
	})
}

func TestSetLogLevel(t *testing.T) {
	original := L.Logger.GetLevel()
	defer L.Logger.SetLevel(original)

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())

	assert.Error(t, SetLogLevel("not-a-level"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel(), "level unchanged on bad input")
}

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(logrus.New().Out)

	L.Warn("captured")
	assert.Contains(t, buf.String(), "captured")
}
