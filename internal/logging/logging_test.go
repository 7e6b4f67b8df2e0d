package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	logger, err := New(Config{Level: "warn"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info to be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("expected warn to be enabled")
	}
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(Config{Level: "loud"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info level after invalid input")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug disabled after invalid input")
	}
}

func TestVerboseEnablesDebug(t *testing.T) {
	logger, err := New(Config{Level: "error", Verbose: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug enabled in verbose mode")
	}
}

func TestInstallReplacesGlobals(t *testing.T) {
	before := zap.L()
	restore, err := Install(Config{Level: "info", Encoding: "json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if zap.L() == before {
		t.Error("expected global logger to be replaced")
	}
	restore()
	if zap.L() != before {
		t.Error("expected global logger to be restored")
	}
}
