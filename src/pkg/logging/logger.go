/*
Package logging writes the run log files.

Two files live in the log directory:
  - log.txt    every progress line, "main [2006-01-02 15:04:05,000] - message"
  - errors.txt error lines only, "errors [...] - message", created on the first error

Every line is mirrored to the console through tintlog.
*/
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

const (
	RuntimeFileName = "log.txt"
	ErrorsFileName  = "errors.txt"

	runtimeLoggerName = "main"
	errorsLoggerName  = "errors"
	timestampLayout   = "2006-01-02 15:04:05,000"
)

/*
Logger is created once per run and handed to every component that reports progress.

Safe for concurrent use, although the invoicer itself is sequential.
*/
type Logger struct {
	mu          sync.Mutex
	runtime     io.Writer
	errors      io.Writer
	openErrors  func() (io.WriteCloser, error)
	closers     []io.Closer
	errorCount  int
	errorsState error
	now         func() time.Time

	RunID string
}

/*
Open creates dir if missing and opens log.txt for appending.

errors.txt is opened lazily on the first call to Error.
*/
func Open(dir string) (l *Logger, e *xerr.Error) {
	mkdirErr := os.MkdirAll(dir, 0o755)
	if mkdirErr != nil {
		return nil, xerr.NewError(mkdirErr, "create log directory", dir)
	}

	runtimePath := filepath.Join(dir, RuntimeFileName)
	runtimeFile, openErr := os.OpenFile(runtimePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if openErr != nil {
		return nil, xerr.NewError(openErr, "open runtime log", runtimePath)
	}

	errorsPath := filepath.Join(dir, ErrorsFileName)
	l = newLogger(runtimeFile, nil, func() (io.WriteCloser, error) {
		return os.OpenFile(errorsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	})
	l.closers = append(l.closers, runtimeFile)

	tl.Log(tl.Info1, palette.Blue, "Logging to '%s' (run %s)", runtimePath, l.RunID)
	return l, nil
}

// New builds a Logger on top of arbitrary writers. errors may be nil to discard error lines.
func New(runtime, errors io.Writer) *Logger {
	if runtime == nil {
		runtime = io.Discard
	}
	if errors == nil {
		errors = io.Discard
	}
	return newLogger(runtime, errors, nil)
}

func newLogger(runtime, errors io.Writer, openErrors func() (io.WriteCloser, error)) *Logger {
	return &Logger{
		runtime:    runtime,
		errors:     errors,
		openErrors: openErrors,
		now:        time.Now,
		RunID:      uuid.NewString(),
	}
}

// SetClock replaces the timestamp source.
func (l *Logger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Info writes a progress line.
func (l *Logger) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	tl.Log(tl.Info, palette.Blue, "%s", msg)
	l.writeRuntime(msg)
}

// Debug writes a detail line (request urls, payloads).
func (l *Logger) Debug(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	tl.Log(tl.Debug, palette.CyanDim, "%s", msg)
	l.writeRuntime(msg)
}

// Warn writes a progress line that deserves attention but is not an error.
func (l *Logger) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	tl.Log(tl.Warning, palette.Yellow, "%s", msg)
	l.writeRuntime(msg)
}

// Error writes to errors.txt, opening it on first use.
func (l *Logger) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	tl.Log(tl.Error, palette.Red, "%s", msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorCount++
	if l.errors == nil && l.errorsState == nil {
		w, openErr := l.openErrors()
		if openErr != nil {
			l.errorsState = openErr
			tl.Log(tl.Error, palette.RedBold, "Unable to open %s: %s", ErrorsFileName, openErr)
		} else {
			l.errors = w
			l.closers = append(l.closers, w)
		}
	}
	if l.errors != nil {
		fmt.Fprint(l.errors, l.format(errorsLoggerName, msg))
	}
}

// ErrorCount reports how many error lines were written in this run.
func (l *Logger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errorCount
}

// Close flushes and closes the files opened by Open.
func (l *Logger) Close() (e *xerr.Error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.closers {
		closeErr := c.Close()
		if closeErr != nil && e == nil {
			e = xerr.NewError(closeErr, "close log file", nil)
		}
	}
	l.closers = nil
	return e
}

func (l *Logger) writeRuntime(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.runtime, l.format(runtimeLoggerName, msg))
}

func (l *Logger) format(name, msg string) string {
	msg = strings.TrimRight(msg, "\n")
	return fmt.Sprintf("%s [%s] - %s\n", name, l.now().Format(timestampLayout), msg)
}
