package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetup(t *testing.T) {
	var buf bytes.Buffer
	l := Setup("debug", &buf)
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", l.GetLevel())
	}
	l.WithField("symbol", "AAPL").Debug("hello")
	if out := buf.String(); !strings.Contains(out, "symbol=AAPL") || !strings.Contains(out, "msg=hello") {
		t.Errorf("unexpected output %q", out)
	}

	buf.Reset()
	l = Setup("chatty", &buf)
	if l.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected info fallback, got %s", l.GetLevel())
	}
	if !strings.Contains(buf.String(), "unknown log level") {
		t.Errorf("expected warning, got %q", buf.String())
	}
	Setup("info", nil)
}
