package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initFile points the global logger at a fresh file and returns a reader for it.
func initFile(t *testing.T, level string) func() string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gltfview.log")
	if err := InitWithFileConfig(level, FileConfig{Path: path, MaxSizeMB: 1}, false); err != nil {
		t.Fatalf("InitWithFileConfig: %v", err)
	}
	t.Cleanup(func() {
		Log = zap.NewNop()
		Sugar = Log.Sugar()
		helpers = Log
	})
	return func() string {
		Sync()
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading log: %v", err)
		}
		return string(data)
	}
}

func TestFileOutputFiltersByLevel(t *testing.T) {
	read := initFile(t, "warn")

	Info("model loaded")
	Warn("texture skipped", zap.String("uri", "missing.png"))

	out := read()
	if strings.Contains(out, "model loaded") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "missing.png") {
		t.Errorf("warn entry missing: %q", out)
	}
}

func TestHelpersReportCallerLocation(t *testing.T) {
	read := initFile(t, "debug")

	Debug("from helper")
	Log.Debug("from logger")

	for _, line := range strings.Split(strings.TrimSpace(read()), "\n") {
		if !strings.Contains(line, "logger_test.go") {
			t.Errorf("caller should be the test file: %q", line)
		}
	}
}

func TestLoggingBeforeInit(t *testing.T) {
	// Library packages log during load; this must not panic without Init.
	Debug("debug message")
	Warn("warn message", zap.String("uri", "missing.png"))
	Sugar.Infof("loaded %d nodes", 3)
	Sync()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
		{"fatal", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultFileConfig(t *testing.T) {
	want := FileConfig{Path: "logs/gltfview.log", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
	if got := DefaultFileConfig("logs/gltfview.log"); got != want {
		t.Errorf("DefaultFileConfig = %+v, want %+v", got, want)
	}
}
