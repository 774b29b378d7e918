package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(slog.LevelInfo, "json", &buf)
	require.NoError(t, err)

	log.WithFile("lib.msp").Debug("hidden")
	log.WithFile("lib.msp").Info("loaded", "count", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "loaded", entry["msg"])
	assert.Equal(t, "lib.msp", entry["file"])
	assert.EqualValues(t, 3, entry["count"])
}

func TestNewUnknownFormat(t *testing.T) {
	_, err := New(slog.LevelInfo, "xml", nil)
	assert.Error(t, err)
}

func TestLogSkipped(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(slog.LevelInfo, "text", &buf)
	require.NoError(t, err)

	log.LogSkipped("missing iRT", nil)
	assert.Empty(t, buf.String())

	ids := make([]int, 25)
	log.LogSkipped("missing iRT", ids)
	assert.Contains(t, buf.String(), "count=25")

	buf.Reset()
	log.LogRejected([]error{errors.New("line 3: bad peak")})
	assert.True(t, strings.Contains(buf.String(), "bad peak"))
}

func TestNoop(t *testing.T) {
	assert.NotPanics(t, func() { Noop().Error("dropped") })
}
