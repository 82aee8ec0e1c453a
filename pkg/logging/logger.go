package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

// Level is a logging threshold; a Logger emits a call only if the call's
// level is at or below the Logger's configured Level.
type Level uint

const (
	// LevelError indicates that only fatal errors are logged.
	LevelError Level = iota
	// LevelWarn indicates that both fatal and non-fatal errors are logged.
	LevelWarn
	// LevelInfo indicates that basic execution information is logged (in
	// addition to all errors), the level foliotree's CLI and sync
	// coordinator run at.
	LevelInfo
	// LevelDebug indicates that advanced execution information is logged
	// (in addition to basic information and all errors). Debug-level calls
	// produce output only if DebugEnabled is set and the logger's level is
	// at least this constant.
	LevelDebug
)

// DebugEnabled controls whether or not Debug-level logging methods produce
// output. It defaults to false and nothing in this repository sets it. It is
// checked on every debug logging call, so it should only be written before
// any loggers begin emitting output.
var DebugEnabled = false

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logger.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end of
// a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	// Append the data to our internal buffer.
	w.buffer = append(w.buffer, buffer...)

	// Process all lines in the buffer, tracking the number of bytes that we
	// process.
	var processed int
	remaining := w.buffer
	for {
		// Find the index of the next newline character.
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}

		// Process the line.
		w.callback(string(trimCarriageReturn(remaining[:index])))

		// Update the number of bytes that we've processed.
		processed += index + 1

		// Update the remaining slice.
		remaining = remaining[index+1:]
	}

	// If we managed to process bytes, then truncate our internal buffer.
	if processed > 0 {
		// Compute the number of leftover bytes.
		leftover := len(w.buffer) - processed

		// If there are leftover bytes, then shift them to the front of the
		// buffer.
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}

		// Truncate the buffer.
		w.buffer = w.buffer[:leftover]
	}

	// Done.
	return len(buffer), nil
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. Each Logger is built around
// a level threshold and an output destination, and supports deriving named
// subloggers that share that destination. It is safe for concurrent usage.
type Logger struct {
	// level is the minimum level at which this logger (and its subloggers)
	// will produce output.
	level Level
	// prefix is any prefix specified for the logger.
	prefix string
	// underlying is the standard library logger used for output formatting.
	underlying *log.Logger
}

// NewLogger creates a new root logger that writes to the specified
// destination, emitting only messages at or below the specified level.
func NewLogger(level Level, output io.Writer) *Logger {
	return &Logger{
		level:      level,
		underlying: log.New(output, "", log.Ldate|log.Ltime),
	}
}

// RootLogger is the root logger from which all other loggers derive when no
// explicit logger has been constructed. It writes to standard output at the
// informational level.
var RootLogger = NewLogger(LevelInfo, os.Stdout)

// Sublogger creates a new sublogger with the specified name.
func (l *Logger) Sublogger(name string) *Logger {
	// If the logger is nil, then the sublogger will be as well.
	if l == nil {
		return nil
	}

	// Compute the new prefix.
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	// Create the new logger.
	return &Logger{
		level:      l.level,
		prefix:     prefix,
		underlying: l.underlying,
	}
}

// output is the internal logging method.
func (l *Logger) output(level Level, line string) {
	if l.level < level {
		return
	}
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	l.underlying.Output(4, line)
}

// Print logs information with semantics equivalent to fmt.Print.
func (l *Logger) Print(v ...interface{}) {
	if l != nil {
		l.output(LevelInfo, fmt.Sprint(v...))
	}
}

// Printf logs information with semantics equivalent to fmt.Printf.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l != nil {
		l.output(LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Println logs information with semantics equivalent to fmt.Println.
func (l *Logger) Println(v ...interface{}) {
	if l != nil {
		l.output(LevelInfo, fmt.Sprintln(v...))
	}
}

// Info logs information at the informational level.
func (l *Logger) Info(v ...interface{}) {
	if l != nil {
		l.output(LevelInfo, fmt.Sprint(v...))
	}
}

// Infof logs formatted information at the informational level.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l != nil {
		l.output(LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Writer returns an io.Writer that writes lines using Println.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &writer{
		callback: func(s string) {
			l.Println(s)
		},
	}
}

// Debug logs information with semantics equivalent to fmt.Print, but only if
// debugging is enabled (otherwise it's a no-op).
func (l *Logger) Debug(v ...interface{}) {
	if l != nil && DebugEnabled {
		l.output(LevelDebug, fmt.Sprint(v...))
	}
}

// Debugf logs information with semantics equivalent to fmt.Printf, but only if
// debugging is enabled (otherwise it's a no-op).
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l != nil && DebugEnabled {
		l.output(LevelDebug, fmt.Sprintf(format, v...))
	}
}

// Debugln logs information with semantics equivalent to fmt.Println, but only
// if debugging is enabled (otherwise it's a no-op).
func (l *Logger) Debugln(v ...interface{}) {
	if l != nil && DebugEnabled {
		l.output(LevelDebug, fmt.Sprintln(v...))
	}
}

// DebugWriter returns an io.Writer that writes lines using Debugln.
func (l *Logger) DebugWriter() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &writer{
		callback: func(s string) {
			l.Debugln(s)
		},
	}
}

// Warn logs error information with a warning prefix and yellow color.
func (l *Logger) Warn(err error) {
	if l != nil {
		l.output(LevelWarn, color.YellowString("Warning: %v", err))
	}
}

// Warnf logs formatted warning information with a warning prefix and yellow
// color.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l != nil {
		l.output(LevelWarn, color.YellowString("Warning: "+format, v...))
	}
}

// Error logs error information with an error prefix and red color.
func (l *Logger) Error(err error) {
	if l != nil {
		l.output(LevelError, color.RedString("Error: %v", err))
	}
}
