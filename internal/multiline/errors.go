// SPDX-License-Identifier: Apache-2.0

package multiline

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrConfig marks a missing or uncompilable pattern for a log type.
	ErrConfig = errors.New("multiline configuration error")
	// ErrDecode marks a record that does not match the log pattern.
	ErrDecode = errors.New("record does not match log pattern")
)

// maxErrorExcerpt bounds how much of a raw record is rendered into an error
// message. DecodeError.Raw always keeps the full text.
const maxErrorExcerpt = 2048

// DecodeError reports an assembled record that the log pattern rejected.
type DecodeError struct {
	LogType string
	Ordinal int
	Raw     string
	// Pattern is the source expression of the log pattern.
	Pattern string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid regex pattern of %s: record %d does not match %q: %q",
		e.LogType, e.Ordinal, e.Pattern, excerpt(e.Raw))
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

func excerpt(s string) string {
	if len(s) <= maxErrorExcerpt {
		return s
	}
	cut := maxErrorExcerpt
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func configError(logType, format string, args ...any) error {
	return fmt.Errorf("%w: log type %q: %s", ErrConfig, logType, fmt.Sprintf(format, args...))
}
