package main

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/joshuapare/heapkit/internal/logger"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{16 << 20, "16.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := parseLevel(in)
		if err != nil || got != want {
			t.Errorf("parseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Error("parseLevel(loud) should fail")
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := captureOutput(t, func() error {
		versionCmd.Run(versionCmd, nil)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(output, "mmctl dev") {
		t.Errorf("unexpected version output: %q", output)
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"run", "inspect", "verify", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil {
			t.Fatalf("Find(%q): %v", name, err)
		}
		if cmd.Name() != name {
			t.Errorf("Find(%q) returned %q", name, cmd.Name())
		}
	}

	runCmd, _, err := rootCmd.Find([]string{"run"})
	if err != nil {
		t.Fatal(err)
	}
	f := runCmd.Flags().Lookup("verify")
	if f == nil {
		t.Fatal("run has no --verify flag")
	}
	if f.Value.Type() != "bool" {
		t.Errorf("--verify type = %s, want bool", f.Value.Type())
	}
}

func TestSetupLoggingWritesToDir(t *testing.T) {
	resetFlags()
	logDir = t.TempDir()
	logLevel = "debug"
	defer func() {
		resetFlags()
		_ = logger.Init(logger.Options{})
	}()

	if err := setupLogging(nil, nil); err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	logger.Debug("probe")

	entries, err := os.ReadDir(logDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", entries, err)
	}
}
