package api

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRingEviction(t *testing.T) {
	r := NewLogRing(3)
	for _, line := range []string{"a", "b", "c", "d", "e"} {
		r.Append(line)
	}

	assert.Equal(t, []string{"c", "d", "e"}, r.Last(3))
	assert.Equal(t, []string{"d", "e"}, r.Last(2))
	assert.Equal(t, []string{"c", "d", "e"}, r.Last(0), "non-positive n returns everything")
	assert.Equal(t, []string{"c", "d", "e"}, r.Last(10), "n beyond size clamps")
}

func TestLogRingPartialFill(t *testing.T) {
	r := NewLogRing(5)
	r.Append("a")
	r.Append("b")

	assert.Equal(t, []string{"a", "b"}, r.Last(50))
	assert.Equal(t, []string{"b"}, r.Last(1))
}

func TestLogRingEmpty(t *testing.T) {
	r := NewLogRing(4)
	assert.Empty(t, r.Last(5))
}

func TestNewLogRingDefaultSize(t *testing.T) {
	r := NewLogRing(0)
	for i := 0; i <= 200; i++ {
		r.Append(fmt.Sprintf("line-%d", i))
	}

	out := r.Last(0)
	require.Len(t, out, 200)
	assert.Equal(t, "line-1", out[0], "oldest line evicted")
	assert.Equal(t, "line-200", out[199])
}

type captureLogger struct {
	debugs, infos, warns, errors int
}

func (c *captureLogger) Debug(msg string, fields map[string]interface{}) { c.debugs++ }

func (c *captureLogger) Info(msg string, fields map[string]interface{}) { c.infos++ }

func (c *captureLogger) Warn(msg string, fields map[string]interface{}) { c.warns++ }

func (c *captureLogger) Error(msg string, fields map[string]interface{}) { c.errors++ }

func TestRunLoggerTeesIntoRing(t *testing.T) {
	inner := &captureLogger{}
	ring := NewLogRing(10)

	l := newRunLogger(inner, ring)
	l.now = func() time.Time {
		return time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	}

	l.Info("day closed", map[string]interface{}{"users": 42, "day": 3})
	l.Warn("store write failed", nil)
	l.Debug("sampled", map[string]interface{}{"id": "u1"})
	l.Error("boom", nil)

	assert.Equal(t, 1, inner.infos)
	assert.Equal(t, 1, inner.warns)
	assert.Equal(t, 1, inner.debugs)
	assert.Equal(t, 1, inner.errors)

	lines := ring.Last(0)
	require.Len(t, lines, 4)
	// Fields render in sorted key order so lines are reproducible.
	assert.Equal(t, "12:00:00 INFO day closed day=3 users=42", lines[0])
	assert.Equal(t, "12:00:00 WARN store write failed", lines[1])
	assert.Equal(t, "12:00:00 DEBUG sampled id=u1", lines[2])
	assert.Equal(t, "12:00:00 ERROR boom", lines[3])
}
