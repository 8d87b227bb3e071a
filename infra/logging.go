package infra

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Tsinling0525/scriptflow/plugin"
)

// logRing keeps the most recent log lines of one instance.
type logRing struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newLogRing(max int) *logRing {
	if max <= 0 {
		max = 1000
	}
	return &logRing{max: max}
}

// Write receives one encoded entry per call.
func (r *logRing) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	if len(r.lines) > r.max {
		// trim oldest
		r.lines = append([]string(nil), r.lines[len(r.lines)-r.max:]...)
	}
	return len(p), nil
}

func (r *logRing) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// teeToRing returns a logger writing to both base and ring. The ring
// records everything from debug up, whatever the base level.
func teeToRing(base *zap.Logger, ring *logRing) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.RFC3339TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(ring), zapcore.DebugLevel)
	return zap.New(zapcore.NewTee(base.Core(), core))
}

// LogBus writes engine events to a logger at debug level.
type LogBus struct{ Log *zap.Logger }

func (b LogBus) Emit(_ context.Context, event string, fields map[string]any) error {
	if b.Log == nil {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	zf := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	b.Log.Debug(event, zf...)
	return nil
}

var _ plugin.EventBus = LogBus{}
