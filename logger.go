package match

import (
	"log/slog"
	"os"
)

var logger = defaultLogger()

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("module", "crossbook")
}

// SetLogger replaces the package logger, nil restores the JSON stdout default.
// Call it before any book is opened.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = defaultLogger()
	}
	logger = l
}
