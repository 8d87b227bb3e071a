package debug

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Tsinling0525/scriptflow/model"
	"github.com/Tsinling0525/scriptflow/plugin/plugintest"
)

func TestLogWritesValue(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := plugintest.New(model.Settings{"text": "score"})
	ctx.Log = zap.New(core)
	ctx.Data[LogValue] = []any{1, "a"}

	if got := (Log{}).Update(ctx); got.State != model.Done || len(got.Outputs) != 1 || got.Outputs[0] != LogOut {
		t.Fatalf("Expected Done(%d), got %+v", LogOut, got)
	}
	entries := logs.FilterMessage("score").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	if v := entries[0].ContextMap()["value"]; v != "1, a" {
		t.Errorf("Expected value '1, a', got %v", v)
	}
}

func TestAbortTerminates(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx := plugintest.New(model.Settings{"reason": "boom"})
	ctx.Log = zap.New(core)

	if got := (Abort{}).Update(ctx); got.State != model.Terminate {
		t.Errorf("Expected Terminate, got %+v", got)
	}
	if logs.Len() != 1 {
		t.Errorf("Expected one warning, got %d", logs.Len())
	}
}
