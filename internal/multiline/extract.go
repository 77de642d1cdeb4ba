// SPDX-License-Identifier: Apache-2.0

package multiline

import (
	"iter"
	"strings"
	"unicode"
)

// Extract returns the records whose ordinals fall in the inclusive window
// [start, end], in order. Ordinals are 1-based and assigned to every line the
// first-line pattern matches. Lines before the first boundary are dropped.
//
// The sequence is lazy and single pass: each pull advances lines only as far
// as needed to close the next in-window record, and no line is read after the
// record at ordinal end has been emitted. A decode failure is yielded with the
// record (Fields nil) and the sequence continues if the caller keeps pulling.
// Configuration and source errors are yielded once and end the sequence.
func (f *Format) Extract(lines Lines, start, end int, meta Metadata) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		start := max(start, 1)
		if start > end {
			return
		}
		scanner, err := f.Scanner()
		if err != nil {
			yield(Record{}, err)
			return
		}
		if _, err := f.record(); err != nil {
			yield(Record{}, err)
			return
		}

		var (
			ordinal int
			// begun is the ordinal the accumulated record was assigned when
			// its first line was seen.
			begun   int
			inScope bool
			buf     []string
		)
		emit := func() bool {
			raw := strings.TrimRightFunc(strings.Join(buf, ""), unicode.IsSpace)
			buf = buf[:0]
			fields, err := f.decode(raw, begun)
			return yield(Record{Raw: raw, Fields: fields, Meta: meta, Ordinal: begun}, err)
		}

		for line, err := range lines {
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !scanner.Classify(line) {
				if inScope {
					buf = append(buf, line)
				}
				continue
			}

			if inScope && start <= begun && begun <= end {
				if !emit() {
					return
				}
			}
			ordinal++
			if ordinal > end {
				return
			}
			inScope = ordinal >= start
			if inScope {
				begun = ordinal
				buf = append(buf, line)
			}
		}
		if inScope {
			emit()
		}
	}
}
