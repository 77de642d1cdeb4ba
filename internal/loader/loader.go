// SPDX-License-Identifier: Apache-2.0

// Package loader drives multiline extraction for whole log objects: it picks
// the log type, opens the object through a Source, and applies the caller's
// decode error policy to the record stream.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gemaraproj/multiline-loader/internal/config"
	"github.com/gemaraproj/multiline-loader/internal/logging"
	"github.com/gemaraproj/multiline-loader/internal/multiline"
	"github.com/gemaraproj/multiline-loader/internal/multiline/sources"
)

// Policy decides what happens when a record does not match its log pattern.
type Policy string

const (
	PolicyAbort Policy = "abort"
	PolicySkip  Policy = "skip"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	}
	return "", fmt.Errorf("unknown decode error policy %q (want abort or skip)", s)
}

type Loader struct {
	cfg     *config.Config
	sources []sources.Source
	logger  *slog.Logger

	mu      sync.Mutex
	formats map[string]*multiline.Format
}

// New creates a Loader over the given sources. Source order matters: the
// first source that can handle a location opens it.
func New(cfg *config.Config, srcs ...sources.Source) *Loader {
	return &Loader{
		cfg:     cfg,
		sources: srcs,
		logger:  logging.New("loader"),
		formats: map[string]*multiline.Format{},
	}
}

// Request describes one extraction.
type Request struct {
	Location string
	// LogType is resolved from Location when empty.
	LogType string
	// Start and End select records by 1-based ordinal, inclusive. End <= 0
	// means through the last record.
	Start  int
	End    int
	Policy Policy
	Meta   multiline.Metadata
}

// Summary reports how an extraction went.
type Summary struct {
	RunID      string
	LogType    string
	SourceUsed string
	Emitted    int
	Skipped    []*multiline.DecodeError
}

// RunResult is the output of a collected extraction.
type RunResult struct {
	Summary
	Records []multiline.Record
}

// Format returns the shared Format for a configured log type.
func (l *Loader) Format(logType string) (*multiline.Format, error) {
	lt, ok := l.cfg.LogType(logType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown log type %q", multiline.ErrConfig, logType)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.formats[logType]; ok {
		return f, nil
	}
	f := multiline.NewFormat(logType, lt.Patterns(), multiline.WithLogger(logging.New("multiline")))
	l.formats[logType] = f
	return f, nil
}

// Count returns the number of records in the object at location.
func (l *Loader) Count(ctx context.Context, location, logType string) (int, error) {
	f, src, err := l.prepare(location, logType)
	if err != nil {
		return 0, err
	}
	rc, err := src.Open(ctx, location)
	if err != nil {
		return 0, fmt.Errorf("source %q failed: %w", src.Name(), err)
	}
	defer rc.Close()

	n, err := f.CountRecords(contextLines(ctx, multiline.LinesFromReader(rc)))
	if err != nil {
		return n, fmt.Errorf("count %s: %w", location, err)
	}
	return n, nil
}

// Run extracts the requested window and collects the records.
func (l *Loader) Run(ctx context.Context, req Request) (RunResult, error) {
	var records []multiline.Record
	summary, err := l.Stream(ctx, req, func(rec multiline.Record) error {
		records = append(records, rec)
		return nil
	})
	return RunResult{Summary: summary, Records: records}, err
}

// Stream extracts the requested window and hands each decoded record to
// emit in ordinal order. An error from emit stops the extraction.
func (l *Loader) Stream(ctx context.Context, req Request, emit func(multiline.Record) error) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}

	policy, err := ParsePolicy(string(req.Policy))
	if err != nil {
		return summary, err
	}
	f, src, err := l.prepare(req.Location, req.LogType)
	if err != nil {
		return summary, err
	}
	summary.LogType = f.LogType()
	summary.SourceUsed = src.Name()
	// Patterns are checked before the object is fetched.
	if err := f.Validate(); err != nil {
		return summary, err
	}

	log := l.logger.With(
		slog.String("run_id", summary.RunID),
		slog.String("location", req.Location),
		slog.String("log_type", summary.LogType),
	)
	t0 := time.Now()
	log.Info("extract start", slog.Int("start", req.Start), slog.Int("end", req.End))

	rc, err := src.Open(ctx, req.Location)
	if err != nil {
		return summary, fmt.Errorf("source %q failed: %w", src.Name(), err)
	}
	defer rc.Close()

	end := req.End
	if end <= 0 {
		end = math.MaxInt
	}
	meta := withLocation(req.Meta, req.Location)

	for rec, err := range f.Extract(contextLines(ctx, multiline.LinesFromReader(rc)), req.Start, end, meta) {
		if err != nil {
			var derr *multiline.DecodeError
			if policy == PolicySkip && errors.As(err, &derr) {
				log.Warn("skipping record", slog.Int("ordinal", derr.Ordinal))
				summary.Skipped = append(summary.Skipped, derr)
				continue
			}
			log.Error("extract failed", slog.String("error", err.Error()))
			return summary, fmt.Errorf("extract %s: %w", req.Location, err)
		}
		if err := emit(rec); err != nil {
			return summary, err
		}
		summary.Emitted++
	}

	log.Info("extract finish",
		slog.Int("emitted", summary.Emitted),
		slog.Int("skipped", len(summary.Skipped)),
		slog.Duration("elapsed", time.Since(t0)))
	return summary, nil
}

func (l *Loader) prepare(location, logType string) (*multiline.Format, sources.Source, error) {
	src, err := sources.Select(location, l.sources...)
	if err != nil {
		return nil, nil, err
	}
	if logType == "" {
		logType, err = l.ResolveLogType(location)
		if err != nil {
			return nil, nil, err
		}
	}
	f, err := l.Format(logType)
	if err != nil {
		return nil, nil, err
	}
	return f, src, nil
}

// ctxCheckInterval is how many lines are read between cancellation checks.
const ctxCheckInterval = 256

// contextLines ends lines with ctx's error once ctx is done.
func contextLines(ctx context.Context, lines multiline.Lines) multiline.Lines {
	return func(yield func(string, error) bool) {
		n := 0
		for line, err := range lines {
			if n%ctxCheckInterval == 0 {
				if cerr := ctx.Err(); cerr != nil {
					yield("", cerr)
					return
				}
			}
			n++
			if !yield(line, err) {
				return
			}
		}
	}
}

// withLocation copies meta and records the location the records came from,
// unless the caller already set one.
func withLocation(meta multiline.Metadata, location string) multiline.Metadata {
	out := make(multiline.Metadata, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	if _, ok := out["location"]; !ok {
		out["location"] = location
	}
	return out
}
