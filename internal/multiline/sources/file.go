// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileSource opens local files. It accepts plain paths and file:// URIs.
type FileSource struct{}

func NewFileSource() *FileSource {
	return &FileSource{}
}

func (s *FileSource) Name() string {
	return "file"
}

func (s *FileSource) CanHandle(location string) bool {
	if location == "" || location == "-" {
		return false
	}
	if strings.HasPrefix(location, "file://") {
		return true
	}
	return !strings.Contains(location, "://")
}

func (s *FileSource) Open(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(strings.TrimPrefix(location, "file://"))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return maybeGunzip(f)
}

// StdinSource reads the location "-" from in, normally the process's
// standard input.
type StdinSource struct {
	in io.Reader
}

func NewStdinSource(in io.Reader) *StdinSource {
	if in == nil {
		in = os.Stdin
	}
	return &StdinSource{in: in}
}

func (s *StdinSource) Name() string {
	return "stdin"
}

func (s *StdinSource) CanHandle(location string) bool {
	return location == "-"
}

func (s *StdinSource) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return maybeGunzip(io.NopCloser(s.in))
}
