package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	a := NewZerologAdapterWithLogger(zerolog.New(&buf))

	a.Info("worker spawned",
		String("worker_id", "technical-security-1-abc"),
		Int("active", 3),
		Bool("fallback", true),
		Duration("idle", 30*time.Minute),
		Err(errors.New("boom")),
	)

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got["message"] != "worker spawned" {
		t.Errorf("message = %v", got["message"])
	}
	if got["worker_id"] != "technical-security-1-abc" {
		t.Errorf("worker_id = %v", got["worker_id"])
	}
	if got["active"] != float64(3) {
		t.Errorf("active = %v", got["active"])
	}
	if got["fallback"] != true {
		t.Errorf("fallback = %v", got["fallback"])
	}
	if got["error"] != "boom" {
		t.Errorf("error = %v", got["error"])
	}
}

func TestZerologAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	a := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	a.Debug("hidden")
	a.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug/info to be filtered, got %q", buf.String())
	}
	a.Warn("shown")
	if buf.Len() == 0 {
		t.Errorf("expected warn to be written")
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	base := NewZerologAdapterWithLogger(zerolog.New(&buf))
	l := With(With(base, String("plugin", "spoolwatcher")), String("dir", "/spool"))

	l.Warn("spool request failed", String("file", "a.json"))

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	for k, want := range map[string]string{"plugin": "spoolwatcher", "dir": "/spool", "file": "a.json"} {
		if got[k] != want {
			t.Errorf("%s = %v, want %s", k, got[k], want)
		}
	}

	if _, ok := With(nil).(*NoopLogger); !ok {
		t.Error("With(nil) should return a NoopLogger")
	}
	if With(base) != Logger(base) {
		t.Error("With without fields should return the logger unchanged")
	}
}
