package notification

import (
	"testing"

	appprinting "github.com/labelprint/labelprint/internal/application/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier_Levels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	n := NewLogNotifier(zap.New(core))

	n.Notify(appprinting.SeveritySuccess, "Success", "enjoy your label")
	n.Notify(appprinting.SeverityWarn, "Validation", "no paper dimension, please select a paper")
	n.Notify(appprinting.SeverityError, "Print failed", "printer offline")

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.Equal(t, "Print failed", entries[2].Message)
	assert.Equal(t, "printer offline", entries[2].ContextMap()["detail"])
}

func TestRecordingNotifier(t *testing.T) {
	next := NewRecordingNotifier(nil)
	n := NewRecordingNotifier(next)

	_, ok := n.Last()
	assert.False(t, ok)

	n.Notify(appprinting.SeverityError, "Print failed", "printer offline")
	n.Notify(appprinting.SeveritySuccess, "Success", "enjoy your label")

	assert.Len(t, n.Notifications(), 2)
	assert.Equal(t, 1, n.Count(appprinting.SeverityError))
	last, ok := n.Last()
	require.True(t, ok)
	assert.Equal(t, "enjoy your label", last.Detail)

	// Forwarded
	assert.Len(t, next.Notifications(), 2)

	n.Reset()
	assert.Empty(t, n.Notifications())
}
