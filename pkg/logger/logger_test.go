package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_WritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Service: "bootcamp-api", Output: &buf})

	log.Info().Str("email", "a@x.com").Msg("signup")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["service"] != "bootcamp-api" {
		t.Fatalf("service field missing: %v", entry)
	}
	if entry["message"] != "signup" || entry["email"] != "a@x.com" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Output: &buf})

	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
}

func TestInit_Singleton(t *testing.T) {
	prev := zerolog.GlobalLevel()
	Reset()
	defer func() {
		Reset()
		zerolog.SetGlobalLevel(prev)
	}()

	var buf bytes.Buffer
	first := Init(Options{Level: "error", Output: &buf})
	second := Init(Options{Level: "debug"})

	if first.GetLevel() != second.GetLevel() {
		t.Fatalf("second Init must not rebuild the logger")
	}
	if Get().GetLevel() != zerolog.ErrorLevel {
		t.Fatalf("expected error level, got %s", Get().GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
