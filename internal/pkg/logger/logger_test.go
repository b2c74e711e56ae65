package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"error", false, false},
		{"", false, true},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(Config{Level: tt.level, Format: "json"}, &buf)

			log.Debug("debug line")
			log.Warn("warn line")

			if got := strings.Contains(buf.String(), "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(buf.String(), "warn line"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)

	log.WithFields(map[string]interface{}{
		"user_id": 42,
		"amount":  350,
	}).With("round", 3).ErrorWithErr(errors.New("ledger frozen"), "Debit rejected")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}

	want := map[string]interface{}{
		"level":   "error",
		"message": "Debit rejected",
		"error":   "ledger frozen",
		"service": "moodlync-tokens",
		"user_id": float64(42),
		"amount":  float64(350),
		"round":   float64(3),
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("%s = %v, want %v", k, line[k], v)
		}
	}
}

func TestScopedLoggers(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "info", Format: "json", Environment: "staging"}, &buf)

	log.ForUser(7).ForRound(4).Info("NFT burned into pool")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	want := map[string]interface{}{
		"service":    ServiceName,
		"env":        "staging",
		"user_id":    float64(7),
		"pool_round": float64(4),
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("%s = %v, want %v", k, line[k], v)
		}
	}
}

func TestEnvironmentOmittedWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(Config{Level: "info", Format: "json"}, &buf).Info("ready")

	if strings.Contains(buf.String(), `"env"`) {
		t.Errorf("log line = %q, want no env field", buf.String())
	}
}

func TestNewFallsBackToStdout(t *testing.T) {
	log := New(Config{Level: "error", Format: "json", OutputPath: t.TempDir() + "/missing/dir/app.log"})
	if log == nil {
		t.Fatal("New() returned nil for an unwritable path")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := t.TempDir() + "/tokens.log"
	New(Config{Level: "info", Format: "json", OutputPath: path}).Info("ledger ready")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "ledger ready") {
		t.Errorf("log file = %q, want the message", data)
	}
}
