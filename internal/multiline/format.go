// SPDX-License-Identifier: Apache-2.0

package multiline

import (
	"log/slog"
	"regexp"
	"sync"
)

// Patterns are the source expressions a Format resolves on first use.
type Patterns struct {
	// FirstLine matches the first line of every record (prefix match).
	FirstLine string
	// LogPattern decodes an assembled record into named groups.
	LogPattern string
}

// Format extracts and decodes multiline records of one log type. The compiled
// patterns are resolved once, on first use, and are safe to share between
// concurrent extractions.
type Format struct {
	logType   string
	patterns  Patterns
	firstLine string
	logger    *slog.Logger

	boundary func() (*regexp.Regexp, error)
	record   func() (*regexp.Regexp, error)
}

type Option func(*Format)

// WithFirstLine sets a first-line expression used when the log type's
// patterns do not define one.
func WithFirstLine(expr string) Option {
	return func(f *Format) {
		f.firstLine = expr
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Format) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFormat creates a Format. Nothing is compiled until first use, so missing
// patterns are reported by the first call that needs them.
func NewFormat(logType string, patterns Patterns, opts ...Option) *Format {
	f := &Format{
		logType:  logType,
		patterns: patterns,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(slog.String("log_type", logType))
	f.boundary = sync.OnceValues(f.compileBoundary)
	f.record = sync.OnceValues(f.compileRecord)
	return f
}

func (f *Format) LogType() string {
	return f.logType
}

// Validate resolves both patterns and returns the first configuration error.
func (f *Format) Validate() error {
	if _, err := f.boundary(); err != nil {
		return err
	}
	_, err := f.record()
	return err
}

func (f *Format) compileBoundary() (*regexp.Regexp, error) {
	expr := f.patterns.FirstLine
	if expr == "" {
		expr = f.firstLine
	}
	if expr == "" {
		return nil, configError(f.logType, "no multiline_firstline (regex), define it in the log type configuration")
	}
	re, err := compileAnchored(expr)
	if err != nil {
		return nil, configError(f.logType, "multiline_firstline: %v", err)
	}
	return re, nil
}

func (f *Format) compileRecord() (*regexp.Regexp, error) {
	if f.patterns.LogPattern == "" {
		return nil, configError(f.logType, "no log_pattern (regex), define it in the log type configuration")
	}
	re, err := compileAnchored(f.patterns.LogPattern)
	if err != nil {
		return nil, configError(f.logType, "log_pattern: %v", err)
	}
	return re, nil
}

// compileAnchored compiles expr so it only matches at the start of the input.
// expr must compile on its own, or stray parentheses could close the anchoring
// group early.
func compileAnchored(expr string) (*regexp.Regexp, error) {
	if _, err := regexp.Compile(expr); err != nil {
		return nil, err
	}
	return regexp.Compile(`^(?:` + expr + `)`)
}
