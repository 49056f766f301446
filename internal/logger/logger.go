package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger with full timestamps at the given level.
// An unknown level falls back to info.
func Setup(level string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}
	l := logrus.StandardLogger()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		defer l.Warnf("unknown log level %q, using info", level)
	}
	l.SetLevel(lvl)
	return l
}
