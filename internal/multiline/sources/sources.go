// SPDX-License-Identifier: Apache-2.0

// Package sources opens raw log data for multiline extraction. Each Source
// handles one kind of location (local path, stdin, S3 object) and hands back
// a reader; compressed data is inflated transparently.
package sources

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
)

// Source opens a location for reading.
type Source interface {
	CanHandle(location string) bool
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Name() string
}

// Select returns the first source that can handle location.
func Select(location string, srcs ...Source) (Source, error) {
	for _, src := range srcs {
		if src.CanHandle(location) {
			return src, nil
		}
	}
	return nil, fmt.Errorf("unsupported location %q: no source can open it", location)
}

var gzipMagic = []byte{0x1f, 0x8b}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// maybeGunzip sniffs the gzip magic bytes and inflates the stream if present.
func maybeGunzip(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		rc.Close()
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(head) < len(gzipMagic) || head[0] != gzipMagic[0] || head[1] != gzipMagic[1] {
		return &readCloser{Reader: br, closers: []io.Closer{rc}}, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	return &readCloser{Reader: zr, closers: []io.Closer{zr, rc}}, nil
}
