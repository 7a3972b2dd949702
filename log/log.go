// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package log provides the small structured logger the pmat core is
// injected with, in place of a global logger. It mirrors the shape of
// the Kratos-style logger the teacher package exposes as
// "github.com/saferwall/pe/log": a Logger interface keyed on level plus
// key/value pairs, a filter that can cap the minimum level, and a Helper
// that adds printf-style convenience methods.
package log

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// Level is a log severity.
type Level int8

// Severity levels, lowest first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the human-readable name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the minimal sink every log call eventually reaches.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

// stdLogger writes to an io.Writer using the standard library logger.
type stdLogger struct {
	mu  sync.Mutex
	log *log.Logger
}

// NewStdLogger returns a Logger that writes one line per call to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{log: log.New(w, "", log.LstdFlags)}
}

func (l *stdLogger) Log(level Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	buf := fmt.Sprintf("level=%s", level.String())
	for i := 0; i < len(keyvals); i += 2 {
		if i+1 < len(keyvals) {
			buf += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
		} else {
			buf += fmt.Sprintf(" %v=MISSING", keyvals[i])
		}
	}
	l.log.Println(buf)
	return nil
}

// filter wraps a Logger and drops anything below a minimum level.
type filter struct {
	logger Logger
	level  Level
}

// FilterOption configures a filter.
type FilterOption func(*filter)

// FilterLevel sets the minimum level that passes through the filter.
func FilterLevel(level Level) FilterOption {
	return func(f *filter) {
		f.level = level
	}
}

// NewFilter returns a Logger that suppresses entries below the configured level.
func NewFilter(logger Logger, opts ...FilterOption) Logger {
	f := &filter{logger: logger, level: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *filter) Log(level Level, keyvals ...interface{}) error {
	if level < f.level {
		return nil
	}
	return f.logger.Log(level, keyvals...)
}

// Helper adds printf-style convenience methods on top of a Logger.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger with printf-style convenience methods.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) log(level Level, format string, args ...interface{}) {
	if h == nil || h.logger == nil {
		return
	}
	_ = h.logger.Log(level, "msg", fmt.Sprintf(format, args...))
}

// Debugf logs at debug level.
func (h *Helper) Debugf(format string, args ...interface{}) { h.log(LevelDebug, format, args...) }

// Infof logs at info level.
func (h *Helper) Infof(format string, args ...interface{}) { h.log(LevelInfo, format, args...) }

// Warnf logs at warn level.
func (h *Helper) Warnf(format string, args ...interface{}) { h.log(LevelWarn, format, args...) }

// Errorf logs at error level.
func (h *Helper) Errorf(format string, args ...interface{}) { h.log(LevelError, format, args...) }
