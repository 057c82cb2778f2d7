package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()
	tests := []struct {
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := New(tt.level, "text", &buf)

			logger.Debug("dbg-line")
			logger.Warn("warn-line")

			require.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("dbg-line")))
			require.Equal(t, tt.wantWarn, bytes.Contains(buf.Bytes(), []byte("warn-line")))
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	New("info", "json", &buf).Info("evaluated", "node", "a")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "evaluated", rec["msg"])
	require.Equal(t, "a", rec["node"])
}

func TestNew_TextFormatFallback(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	New("info", "xml", &buf).Info("evaluated", "node", "a")
	require.Contains(t, buf.String(), "node=a")
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	require.NotPanics(t, func() { Discard().Error("dropped") })
}
