// SPDX-License-Identifier: Apache-2.0

package multiline

import "regexp"

// Scanner classifies lines as record boundaries.
type Scanner struct {
	re *regexp.Regexp
}

// Classify reports whether line starts a new record. Only the start of the
// line has to match.
func (s *Scanner) Classify(line string) bool {
	return s.re.MatchString(line)
}

// Scanner returns the boundary scanner, resolving the first-line pattern.
func (f *Format) Scanner() (*Scanner, error) {
	re, err := f.boundary()
	if err != nil {
		return nil, err
	}
	return &Scanner{re: re}, nil
}

// CountRecords consumes lines and returns how many of them start a record.
// On a source error the count so far is returned with the error.
func (f *Format) CountRecords(lines Lines) (int, error) {
	s, err := f.Scanner()
	if err != nil {
		return 0, err
	}
	count := 0
	for line, err := range lines {
		if err != nil {
			return count, err
		}
		if s.Classify(line) {
			count++
		}
	}
	return count, nil
}
