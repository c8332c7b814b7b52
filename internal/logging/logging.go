package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// Setup installs the process-wide logger. Output always goes to stderr so
// stdout stays free for extracted data and the MCP stdio transport.
func Setup(level string) {
	log.DefaultLogger = New(level, os.Stderr)
}

// New returns a console logger writing to w at the given level
func New(level string, w io.Writer) log.Logger {
	return log.Logger{
		Level:      ParseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:         w,
			ColorOutput:    isTerminal(w),
			EndWithMessage: true,
		},
	}
}

// ParseLevel maps the configured level name onto a log level, defaulting to info
func ParseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return log.IsTerminal(f.Fd())
}
