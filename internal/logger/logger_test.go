package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// SetupがJSON形式でログを出力することを検証
func TestSetup_OutputsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Info("test message", slog.String("key", "value"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want %q", entry["key"], "value")
	}
}

// LOG_LEVEL=debugでデバッグログが出力されることを検証
func TestSetup_DebugLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer
	log := Setup(&buf)

	log.Debug("debug message")
	if buf.Len() == 0 {
		t.Error("debug log should be emitted when LOG_LEVEL=debug")
	}
}

// デフォルトレベルではデバッグログが抑制されることを検証
func TestSetup_DefaultLevelSuppressesDebug(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	var buf bytes.Buffer
	log := Setup(&buf)

	log.Debug("debug message")
	if buf.Len() != 0 {
		t.Errorf("debug log should be suppressed at default level, got %q", buf.String())
	}
}

// 不明なLOG_LEVELはinfoとして扱われることを検証
func TestLevelFromEnv_Unknown(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")

	if got := levelFromEnv(); got != slog.LevelInfo {
		t.Errorf("levelFromEnv() = %v, want %v", got, slog.LevelInfo)
	}
}
