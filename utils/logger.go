package utils

import (
	"log/slog"
	"os"
	"sync"

	"github.com/mdobak/go-xerrors"
)

var (
	loggerOnce sync.Once
	logger     *slog.Logger
)

type stackFrame struct {
	Func   string `json:"func"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}

// GetLogger returns the process-wide structured logger. Errors attached with
// slog.Any("error", err) are rendered with message and stack trace when the
// error carries xerrors context.
func GetLogger() *slog.Logger {
	loggerOnce.Do(func() {
		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:       slog.LevelInfo,
			ReplaceAttr: replaceErrorAttr,
		})
		logger = slog.New(handler)
	})
	return logger
}

func replaceErrorAttr(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Value.Kind() {
	case slog.KindAny:
		if err, ok := attr.Value.Any().(error); ok {
			attr.Value = errorValue(err)
		}
	}
	return attr
}

func errorValue(err error) slog.Value {
	attrs := []slog.Attr{
		slog.String("msg", err.Error()),
	}

	if trace := traceFrames(err); len(trace) > 0 {
		attrs = append(attrs, slog.Any("trace", trace))
	}

	return slog.GroupValue(attrs...)
}

func traceFrames(err error) []stackFrame {
	trace := xerrors.StackTrace(err)
	if len(trace) == 0 {
		return nil
	}

	frames := trace.Frames()
	out := make([]stackFrame, 0, len(frames))
	for _, frame := range frames {
		out = append(out, stackFrame{
			Func:   frame.Function,
			Source: frame.File,
			Line:   frame.Line,
		})
	}
	return out
}
