package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, prod := range []bool{true, false} {
		l, err := New(prod)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestCronLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cl := CronLogger{L: zap.New(core)}

	cl.Info("schedule", "entry", 1)
	cl.Error(errors.New("boom"), "job panicked", "job", "sweep")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "cron: schedule", entries[0].Message)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "sweep", entries[1].ContextMap()["job"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}
