// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "warn" {
		t.Errorf("expected default level 'warn', got %q", cfg.Level)
	}

	if cfg.Format != FormatText {
		t.Errorf("expected default format 'text', got %q", cfg.Format)
	}

	if cfg.Output != os.Stderr {
		t.Errorf("expected default output to be os.Stderr")
	}

	if cfg.AddSource {
		t.Errorf("expected default AddSource to be false")
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected *Config
	}{
		{
			name:     "defaults when no env vars",
			envVars:  map[string]string{},
			expected: &Config{Level: "warn", Format: FormatText},
		},
		{
			name:     "LOG_LEVEL=DEBUG (case insensitive)",
			envVars:  map[string]string{"LOG_LEVEL": "DEBUG"},
			expected: &Config{Level: "debug", Format: FormatText},
		},
		{
			name: "COMPANIONCTL_LOG_LEVEL wins over LOG_LEVEL",
			envVars: map[string]string{
				"COMPANIONCTL_LOG_LEVEL": "info",
				"LOG_LEVEL":              "error",
			},
			expected: &Config{Level: "info", Format: FormatText},
		},
		{
			name: "COMPANIONCTL_DEBUG wins over everything",
			envVars: map[string]string{
				"COMPANIONCTL_DEBUG":     "1",
				"COMPANIONCTL_LOG_LEVEL": "error",
			},
			expected: &Config{Level: "debug", Format: FormatText, AddSource: true},
		},
		{
			name: "LOG_FORMAT and LOG_SOURCE",
			envVars: map[string]string{
				"LOG_FORMAT": "JSON",
				"LOG_SOURCE": "1",
			},
			expected: &Config{Level: "warn", Format: FormatJSON, AddSource: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"COMPANIONCTL_DEBUG", "COMPANIONCTL_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := FromEnv()

			if cfg.Level != tt.expected.Level {
				t.Errorf("expected level %q, got %q", tt.expected.Level, cfg.Level)
			}
			if cfg.Format != tt.expected.Format {
				t.Errorf("expected format %q, got %q", tt.expected.Format, cfg.Format)
			}
			if cfg.AddSource != tt.expected.AddSource {
				t.Errorf("expected AddSource %v, got %v", tt.expected.AddSource, cfg.AddSource)
			}
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&Config{Level: "debug", Format: FormatJSON, Output: &buf})
	logger.Info("test message", "key", "value")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v", err)
	}

	if logEntry["msg"] != "test message" {
		t.Errorf("expected msg field to be 'test message', got: %v", logEntry["msg"])
	}
	if logEntry["key"] != "value" {
		t.Errorf("expected key field to be 'value', got: %v", logEntry["key"])
	}
	if logEntry["level"] != "INFO" {
		t.Errorf("expected level field to be 'INFO', got: %v", logEntry["level"])
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&Config{Level: "info", Format: FormatText, Output: &buf})
	logger.Info("test message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected output to contain 'key=value', got: %s", output)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if New(nil) == nil {
		t.Fatal("expected logger from nil config")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelWarn},
		{"", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if level := ParseLevel(tt.input); level != tt.expected {
				t.Errorf("expected level %v, got %v", tt.expected, level)
			}
		})
	}
}

func TestLogLevel_Filtering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "warn", Format: FormatText, Output: &buf})

	logger.Info("hidden message")
	logger.Warn("visible message")
	Trace(logger, "trace message")

	output := buf.String()
	if strings.Contains(output, "hidden message") {
		t.Errorf("info message should be filtered at warn level: %s", output)
	}
	if strings.Contains(output, "trace message") {
		t.Errorf("trace message should be filtered at warn level: %s", output)
	}
	if !strings.Contains(output, "visible message") {
		t.Errorf("expected warn message in output: %s", output)
	}
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "trace", Format: FormatText, Output: &buf})

	Trace(logger, "matched process", slog.Int(PIDKey, 42))

	output := buf.String()
	if !strings.Contains(output, "matched process") || !strings.Contains(output, "pid=42") {
		t.Errorf("expected trace output with pid, got: %s", output)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(New(&Config{Level: "info", Format: FormatJSON, Output: &buf}), "bootstrap")

	logger.Info("config link reset")

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v", err)
	}
	if logEntry[ComponentKey] != "bootstrap" {
		t.Errorf("expected component 'bootstrap', got: %v", logEntry[ComponentKey])
	}
}

func TestWithInvocation(t *testing.T) {
	var buf bytes.Buffer
	logger := WithInvocation(New(&Config{Level: "info", Format: FormatJSON, Output: &buf}), "abc-123", "start")

	logger.Info("dispatch", Error(errors.New("boom")))

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v", err)
	}
	if logEntry[InvocationKey] != "abc-123" {
		t.Errorf("expected invocation_id 'abc-123', got: %v", logEntry[InvocationKey])
	}
	if logEntry[CommandKey] != "start" {
		t.Errorf("expected command 'start', got: %v", logEntry[CommandKey])
	}
	if logEntry["error"] != "boom" {
		t.Errorf("expected error 'boom', got: %v", logEntry["error"])
	}
}
