// Package logging wraps logrus with the structured call shape used
// throughout the evaluator: CPrint(level, message, fields).
package logging

import (
	"io"
	"os"
	"time"

	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

// Level mirrors logrus.Level so callers never need to import logrus
// directly to call CPrint.
type Level = logrus.Level

const (
	ERROR Level = logrus.ErrorLevel
	WARN  Level = logrus.WarnLevel
	INFO  Level = logrus.InfoLevel
	DEBUG Level = logrus.DebugLevel
	TRACE Level = logrus.TraceLevel
)

// LogFormat is a set of structured fields attached to a single log line.
type LogFormat map[string]interface{}

var std = logrus.New()

func init() {
	std.SetLevel(logrus.InfoLevel)
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	std.SetOutput(os.Stderr)
}

// UseRotatingFile points the logger at a file on disk rotated every
// rotationTime, keeping stderr as a secondary sink for WARN and ERROR.
func UseRotatingFile(pattern string, maxAge, rotationTime time.Duration) error {
	writer, err := rotatelogs.New(
		pattern,
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotationTime),
	)
	if err != nil {
		return err
	}
	std.SetOutput(io.Discard)
	std.AddHook(lfshook.NewHook(lfshook.WriterMap{
		logrus.ErrorLevel: writer,
		logrus.WarnLevel:  writer,
		logrus.InfoLevel:  writer,
		logrus.DebugLevel: writer,
		logrus.TraceLevel: writer,
	}, &logrus.TextFormatter{FullTimestamp: true}))
	std.AddHook(&stderrHook{writer: os.Stderr, formatter: &logrus.TextFormatter{FullTimestamp: true}})
	return nil
}

// SetLevel adjusts the minimum level that reaches any configured sink.
func SetLevel(lvl Level) {
	std.SetLevel(lvl)
}

// CPrint emits a structured log line at the given level, in the shape
// used across the evaluator: CPrint(logging.TRACE, "stepping", logging.LogFormat{...}).
func CPrint(lvl Level, msg string, fields LogFormat) {
	std.WithFields(logrus.Fields(fields)).Log(lvl, msg)
}

type stderrHook struct {
	writer    io.Writer
	formatter logrus.Formatter
}

func (h *stderrHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.ErrorLevel, logrus.WarnLevel}
}

func (h *stderrHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}
