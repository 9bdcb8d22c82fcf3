package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func captureLogger(t *testing.T, cfg *Config) *bytes.Buffer {
	var buf bytes.Buffer
	lg, props, err := InitLoggerWithWriteSyncer(cfg, zapcore.AddSync(&buf), zap.AddCallerSkip(1))
	if err != nil {
		t.Fatal(err)
	}
	oldL, oldP := L(), _globalP.Load().(*ZapProperties)
	ReplaceGlobals(lg, props)
	t.Cleanup(func() { ReplaceGlobals(oldL, oldP) })
	return &buf
}

func TestCtxFields(t *testing.T) {
	buf := captureLogger(t, &Config{Level: "info", Format: "json", DisableCaller: true})
	ctx := WithModule(context.Background(), "crawler")
	ctx = WithFields(ctx, zap.String("exg", "SHFE"))
	Ctx(ctx).Info("crawl start")
	Debug("hidden")
	out := buf.String()
	if !strings.Contains(out, `"module":"crawler"`) || !strings.Contains(out, `"exg":"SHFE"`) {
		t.Errorf("missing ctx fields: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug should be filtered: %s", out)
	}
	SetLevel(zapcore.DebugLevel)
	if GetLevel() != zapcore.DebugLevel {
		t.Errorf("level: %v", GetLevel())
	}
	With(zap.Int("n", 3)).Debug("shown")
	if !strings.Contains(buf.String(), `"n":3`) {
		t.Errorf("debug after SetLevel: %s", buf.String())
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, _, err := InitLoggerWithWriteSyncer(&Config{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{})); err == nil {
		t.Error("invalid level should fail")
	}
}

func TestCallerSite(t *testing.T) {
	buf := captureLogger(t, &Config{Level: "info", Format: "json"})
	Info("package level")
	With(zap.String("exg", "SHFE")).Warn("child logger")
	Ctx(context.Background()).Info("ctx default")
	Ctx(WithModule(context.Background(), "store")).Error("ctx module")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("want 4 lines, got %d: %s", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, `"caller":"log/log_test.go:`) {
			t.Errorf("caller should be the call site: %s", line)
		}
	}
}
