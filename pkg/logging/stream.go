package logging

import (
	"context"
	"io"
	"sync"
)

// StreamLogger writes entries to an io.Writer such as os.Stderr.
// Close does not close the writer.
type StreamLogger struct {
	mu     *sync.Mutex
	writer io.Writer
	format Format
	level  Level
	fields Fields
}

// NewStreamLogger creates a logger writing to w
func NewStreamLogger(w io.Writer, format Format, level Level) *StreamLogger {
	return &StreamLogger{
		mu:     &sync.Mutex{},
		writer: w,
		format: format,
		level:  level,
	}
}

// Debug logs a debug message
func (l *StreamLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

// Info logs an info message
func (l *StreamLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

// Warn logs a warning message
func (l *StreamLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

// Error logs an error message
func (l *StreamLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger with additional fields
func (l *StreamLogger) WithFields(fields Fields) Logger {
	return &StreamLogger{
		mu:     l.mu,
		writer: l.writer,
		format: l.format,
		level:  l.level,
		fields: mergeFields(l.fields, fields),
	}
}

// Close does nothing; the writer belongs to the caller
func (l *StreamLogger) Close() error {
	return nil
}

func (l *StreamLogger) log(level Level, msg string, err error, fields Fields) {
	if level < l.level {
		return
	}

	line, encErr := encodeEntry(l.format, level, msg, err, mergeFields(l.fields, fields))
	if encErr != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer.Write(line)
}
