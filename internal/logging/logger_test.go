// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.Caller {
		t.Error("Caller should default to false")
	}
	if !cfg.Timestamp {
		t.Error("Timestamp should default to true")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Timestamp: true, Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Int64("killmail_id", 42).Msg("processed")

	out := buf.String()
	if !strings.Contains(out, `"message":"processed"`) {
		t.Errorf("missing message in %s", out)
	}
	if !strings.Contains(out, `"killmail_id":42`) {
		t.Errorf("missing field in %s", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("missing level in %s", out)
	}
}

func TestInit_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Warn().Msg("console line")

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("console format produced JSON: %s", out)
	}
	if !strings.Contains(out, "console line") {
		t.Errorf("missing message in %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	t.Parallel()

	for _, lvl := range []string{"debug", "INFO", "warn", "error", "disabled"} {
		if !ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = false", lvl)
		}
	}
	for _, lvl := range []string{"", "verbose", "critical"} {
		if ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = true", lvl)
		}
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { Init(DefaultConfig()) })

	logger := WithComponent("registry")
	logger.Info().Msg("loaded")

	if !strings.Contains(buf.String(), `"component":"registry"`) {
		t.Errorf("missing component in %s", buf.String())
	}
}

func TestErr(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { Init(DefaultConfig()) })

	Err(errors.New("store closed")).Msg("write failed")

	out := buf.String()
	if !strings.Contains(out, `"error":"store closed"`) {
		t.Errorf("missing error in %s", out)
	}
	if !strings.Contains(out, `"level":"error"`) {
		t.Errorf("missing level in %s", out)
	}
}
