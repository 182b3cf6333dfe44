package sysutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel}, // case + trim
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel}, // empty -> info
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel}, // alias
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel}, // default
	}

	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetLogLevel_ReturnsLevel(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	if got := SetLogLevel("ERROR"); got != zerolog.ErrorLevel {
		t.Fatalf("SetLogLevel returned %v", got)
	}
}

func TestNewLogger_JSONAndPretty(t *testing.T) {
	orig := zerolog.GlobalLevel()
	origLogger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(orig)
		log.Logger = origLogger
	})

	var buf bytes.Buffer
	l := NewLogger(&buf, "info", false, "narrator")
	l.Debug().Msg("hidden")
	l.Info().Str("session_id", "s1").Msg("turn")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line must be filtered at info: %s", out)
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", out, err)
	}
	if line["service"] != "narrator" || line["session_id"] != "s1" || line["message"] != "turn" {
		t.Fatalf("unexpected fields: %v", line)
	}

	buf.Reset()
	log.Warn().Msg("global")
	if !strings.Contains(buf.String(), "global") {
		t.Fatalf("NewLogger must install the global logger")
	}

	buf.Reset()
	pl := NewLogger(&buf, "debug", true, "narrator")
	pl.Debug().Msg("pretty")
	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "pretty") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}

func TestFirstNonEmpty(t *testing.T) {
	// no args -> ""
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q; want \"\"", got)
	}
	// only empties -> ""
	if got := FirstNonEmpty(" ", "\t", "\n"); got != "" {
		t.Fatalf("FirstNonEmpty(empties) = %q; want \"\"", got)
	}
	// picks first non-empty (preserves original spacing)
	if got := FirstNonEmpty("   ", "  hello  ", "world"); got != "  hello  " {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "  hello  ")
	}
	// first already non-empty
	if got := FirstNonEmpty("alpha", "beta"); got != "alpha" {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "alpha")
	}
}
