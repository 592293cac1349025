package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	log  *slog.Logger
	once sync.Once
)

// Init configures the process logger. level is one of debug, info, warn,
// error; format is "json" or "text". Safe to call more than once; only the
// first call wins.
func Init(level, format string) {
	once.Do(func() {
		var lvl slog.Level
		switch strings.ToLower(level) {
		case "debug":
			lvl = slog.LevelDebug
		case "warn":
			lvl = slog.LevelWarn
		case "error":
			lvl = slog.LevelError
		default:
			lvl = slog.LevelInfo
		}

		opts := &slog.HandlerOptions{Level: lvl}
		var h slog.Handler
		if strings.ToLower(format) == "json" {
			h = slog.NewJSONHandler(os.Stdout, opts)
		} else {
			h = slog.NewTextHandler(os.Stdout, opts)
		}
		log = slog.New(h)
	})
}

func get() *slog.Logger {
	if log == nil {
		Init("info", "text")
	}
	return log
}

func Debug(msg string, args ...any) {
	get().Debug(msg, normalize(args)...)
}

func Info(msg string, args ...any) {
	get().Info(msg, normalize(args)...)
}

func Warn(msg string, args ...any) {
	get().Warn(msg, normalize(args)...)
}

func Error(msg string, args ...any) {
	get().Error(msg, normalize(args)...)
}

// normalize accepts both key-value pairs and bare errors, so call sites can
// write Error("Repo:Op", err) as well as Error("msg", "error", err).
func normalize(args []any) []any {
	out := make([]any, 0, len(args)+1)
	expectKey := true
	for _, a := range args {
		if err, ok := a.(error); ok && expectKey {
			out = append(out, "error", err)
			continue
		}
		out = append(out, a)
		expectKey = !expectKey
	}
	return out
}
