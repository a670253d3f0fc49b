package logx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsesLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New("debug", false).GetLevel())
	assert.Equal(t, zerolog.WarnLevel, New("WARN", false).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("not-a-level", false).GetLevel(),
		"unknown levels fall back to info")
	assert.Equal(t, zerolog.InfoLevel, New("", true).GetLevel())
}

func TestAdapterTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	a := NewAdapter(zerolog.New(&buf), "sim")

	a.Info("day closed", map[string]interface{}{"day": 3, "users": int64(42)})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "sim", line["component"])
	assert.Equal(t, "day closed", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, float64(3), line["day"])
	assert.Equal(t, float64(42), line["users"])
}

func TestAdapterLevels(t *testing.T) {
	var buf bytes.Buffer
	a := NewAdapter(zerolog.New(&buf), "store")

	a.Debug("d", nil)
	a.Warn("w", nil)
	a.Error("e", nil)

	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"level":"error"`)
}
