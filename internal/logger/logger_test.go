package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo)
	assert.NotNil(t, log)
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	output := buf.String()
	assert.Contains(t, output, "debug message")
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn)

	log.Debug("should not appear")
	log.Info("should not appear")
	log.Warn("should appear")

	output := buf.String()
	assert.NotContains(t, output, "should not appear")
	assert.Contains(t, output, "should appear")
}

func TestLogger_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo)

	log.Info("publishing package", "package", "pkg-1", "version", "1.2.0")

	output := buf.String()
	assert.Contains(t, output, "pkg-1")
	assert.Contains(t, output, "1.2.0")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Level
		wantErr bool
	}{
		{name: "debug", input: "debug", want: LevelDebug},
		{name: "info", input: "info", want: LevelInfo},
		{name: "warn", input: "warn", want: LevelWarn},
		{name: "error", input: "error", want: LevelError},
		{name: "uppercase", input: "INFO", want: LevelInfo},
		{name: "invalid", input: "invalid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedacted(t *testing.T) {
	kv := Redacted("token", "secret-abc", "package", "pkg-1", "Authorization", "Bearer xyz")

	assert.Equal(t, "[redacted]", kv[1])
	assert.Equal(t, "pkg-1", kv[3])
	assert.Equal(t, "[redacted]", kv[5])
}

func TestRedacted_OddLengthUnaffected(t *testing.T) {
	kv := Redacted("package", "pkg-1", "orphan-key")
	assert.Equal(t, "pkg-1", kv[1])
	assert.Equal(t, "orphan-key", kv[2])
}

func TestGetSetGlobal(t *testing.T) {
	original := Get()
	defer SetGlobal(original)

	var buf bytes.Buffer
	custom := New(&buf, LevelInfo)
	SetGlobal(custom)

	assert.Equal(t, custom, Get())
}
