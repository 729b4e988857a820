package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Level = %s, want info", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Pretty should default to false")
	}
	if cfg.Output != os.Stderr {
		t.Error("Output should default to stderr")
	}
	if cfg.File != "" || cfg.MaxSizeMB != 100 {
		t.Errorf("File = %q, MaxSizeMB = %d", cfg.File, cfg.MaxSizeMB)
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	emit := func(logger zerolog.Logger) {
		logger.Debug().Msg("debug-line")
		logger.Info().Msg("info-line")
		logger.Warn().Msg("warn-line")
		logger.Error().Msg("error-line")
	}

	tests := []struct {
		level LogLevel
		want  []string
		drop  []string
	}{
		{LevelDebug, []string{"debug-line", "info-line", "warn-line", "error-line"}, nil},
		{LevelInfo, []string{"info-line", "warn-line", "error-line"}, []string{"debug-line"}},
		{LevelWarn, []string{"warn-line", "error-line"}, []string{"debug-line", "info-line"}},
		{LevelError, []string{"error-line"}, []string{"debug-line", "info-line", "warn-line"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			buf := &bytes.Buffer{}
			emit(Setup(Config{Level: tt.level, Output: buf}))

			out := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("missing %q in %q", s, out)
				}
			}
			for _, s := range tt.drop {
				if strings.Contains(out, s) {
					t.Errorf("%q should be filtered at %s", s, tt.level)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[LogLevel]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}

	for input, want := range tests {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewLogger_Component(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("routecache-test")
	logger.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"component":"routecache-test"`) {
		t.Errorf("component field missing: %q", buf.String())
	}
}

func TestSetup_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routecache.log")
	console := &bytes.Buffer{}

	Setup(Config{
		Level:  LevelInfo,
		Pretty: true,
		Output: console,
		File:   path,
	})

	logger := NewLogger("file-test")
	logger.Info().Msg("rotating message")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"rotating message"`) {
		t.Errorf("Expected JSON line in log file, got %q", data)
	}
	if !strings.Contains(console.String(), "rotating message") {
		t.Errorf("Expected console output too, got %q", console.String())
	}
	if strings.Contains(console.String(), `"message"`) {
		t.Error("Console output should be pretty, not JSON")
	}
}

func TestNewFileWriter_Defaults(t *testing.T) {
	w := NewFileWriter(Config{File: "x.log", MaxBackups: 3, Compress: true})

	if w.MaxSize != 100 {
		t.Errorf("MaxSize = %d, want 100", w.MaxSize)
	}
	if w.Filename != "x.log" || w.MaxBackups != 3 || !w.Compress {
		t.Errorf("unexpected writer settings: %+v", w)
	}
}
