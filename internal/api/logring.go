package api

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// LogRing keeps the last N formatted log lines of one run so the status
// endpoint can show recent activity without a log backend.
type LogRing struct {
	mu    sync.Mutex
	lines []string
	max   int
	next  int
	full  bool
}

// NewLogRing sizes the ring; max <= 0 defaults to 200 lines.
func NewLogRing(max int) *LogRing {
	if max <= 0 {
		max = 200
	}
	return &LogRing{lines: make([]string, max), max: max}
}

// Append adds one line, evicting the oldest once full.
func (r *LogRing) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % r.max
	if r.next == 0 {
		r.full = true
	}
}

// Last returns up to n lines, oldest first.
func (r *LogRing) Last(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	start := 0
	if r.full {
		size = r.max
		start = r.next
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]string, 0, n)
	for i := size - n; i < size; i++ {
		out = append(out, r.lines[(start+i)%r.max])
	}
	return out
}

// runLogger tees engine logs into both the process logger and the run's
// ring. Fields render sorted so a line is stable for a given call.
type runLogger struct {
	inner sim.Logger
	ring  *LogRing
	now   func() time.Time
}

func newRunLogger(inner sim.Logger, ring *LogRing) *runLogger {
	return &runLogger{inner: inner, ring: ring, now: time.Now}
}

func (l *runLogger) line(level, msg string, fields map[string]interface{}) {
	var b strings.Builder
	b.WriteString(l.now().Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	l.ring.Append(b.String())
}

func (l *runLogger) Debug(msg string, fields map[string]interface{}) {
	l.inner.Debug(msg, fields)
	l.line("DEBUG", msg, fields)
}

func (l *runLogger) Info(msg string, fields map[string]interface{}) {
	l.inner.Info(msg, fields)
	l.line("INFO", msg, fields)
}

func (l *runLogger) Warn(msg string, fields map[string]interface{}) {
	l.inner.Warn(msg, fields)
	l.line("WARN", msg, fields)
}

func (l *runLogger) Error(msg string, fields map[string]interface{}) {
	l.inner.Error(msg, fields)
	l.line("ERROR", msg, fields)
}
