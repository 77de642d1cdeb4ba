// SPDX-License-Identifier: Apache-2.0

package multiline

import (
	"errors"
	"log/slog"
)

// Decode matches raw against the log pattern, anchored at its start, and
// returns the named groups. Groups that did not participate in the match are
// left out. A mismatch is returned as a *DecodeError.
func (f *Format) Decode(raw string) (map[string]string, error) {
	return f.decode(raw, 0)
}

func (f *Format) decode(raw string, ordinal int) (map[string]string, error) {
	re, err := f.record()
	if err != nil {
		return nil, err
	}
	loc := re.FindStringSubmatchIndex(raw)
	if loc == nil {
		derr := &DecodeError{
			LogType: f.logType,
			Ordinal: ordinal,
			Raw:     raw,
			Pattern: f.patterns.LogPattern,
		}
		f.logger.Debug("record does not match log pattern",
			slog.Int("ordinal", ordinal),
			slog.String("pattern", derr.Pattern),
			slog.String("raw", excerpt(raw)))
		return nil, derr
	}

	fields := make(map[string]string, len(re.SubexpNames()))
	for i, name := range re.SubexpNames() {
		if name == "" || loc[2*i] < 0 {
			continue
		}
		fields[name] = raw[loc[2*i]:loc[2*i+1]]
	}
	return fields, nil
}

// IsDecodeError reports whether err is a per-record decode failure, as opposed
// to a configuration or source error that ends an extraction.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrDecode)
}
