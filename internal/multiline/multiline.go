// SPDX-License-Identifier: Apache-2.0

package multiline

import (
	"bufio"
	"errors"
	"io"
	"iter"
)

// Lines is a one-shot, ordered source of raw text lines. Each line keeps its
// original terminator. A non-nil error ends the source.
type Lines = iter.Seq2[string, error]

// Metadata is opaque caller data echoed back on every Record.
type Metadata map[string]any

// Record is one decoded logical record.
type Record struct {
	// Raw is the joined record text with trailing whitespace removed.
	Raw     string
	Fields  map[string]string
	Meta    Metadata
	Ordinal int
}

// LinesFromReader reads r line by line, keeping the '\n' terminators.
func LinesFromReader(r io.Reader) Lines {
	return func(yield func(string, error) bool) {
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				if !yield(line, nil) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield("", err)
				}
				return
			}
		}
	}
}

// LinesFromStrings replays a fixed slice of lines.
func LinesFromStrings(lines []string) Lines {
	return func(yield func(string, error) bool) {
		for _, l := range lines {
			if !yield(l, nil) {
				return
			}
		}
	}
}
