package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"verbose":  zapcore.DebugLevel,
		"":         zapcore.DebugLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	core := newCore(newEncoder(JSONFormat), zapcore.AddSync(&buf), zapcore.InfoLevel)
	log := &Logger{SugaredLogger: zap.New(core).Sugar()}

	log.Debugw("hidden")
	log.Infow("auth_login", "user_id", 7)
	_ = log.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "auth_login" || rec["level"] != "info" || rec["user_id"] != float64(7) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	if OrNop(&Logger{}).SugaredLogger == nil {
		t.Fatal("empty logger not replaced")
	}
	l := Nop()
	if OrNop(l) != l {
		t.Fatal("non-nil logger replaced")
	}
	// must not panic
	OrNop(nil).Infow("noop")
}
