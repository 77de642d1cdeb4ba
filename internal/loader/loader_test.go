// SPDX-License-Identifier: Apache-2.0

package loader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemaraproj/multiline-loader/internal/config"
	"github.com/gemaraproj/multiline-loader/internal/loader"
	"github.com/gemaraproj/multiline-loader/internal/multiline"
	"github.com/gemaraproj/multiline-loader/internal/multiline/sources"
)

const testConfig = `
logtypes:
  javaapp:
    s3_key: 'javaapp.*\.log'
    multiline_firstline: '\d{4}-\d{2}-\d{2} '
    log_pattern: '(?P<date>\d{4}-\d{2}-\d{2}) (?P<level>[A-Z]+) (?P<msg>(?s:.*))'
  strict:
    s3_key: 'strict.*\.log'
    multiline_firstline: '\d{4}-\d{2}-\d{2} '
    log_pattern: '(?P<date>\d{4}-\d{2}-\d{2}) INFO (?P<msg>.*)'
  nopattern:
    s3_key: 'nopattern\.log'
    multiline_firstline: 'x'
`

const javaLog = `starting up
2024-01-01 INFO service ready
2024-01-01 ERROR request failed
java.lang.IllegalStateException: boom
	at com.example.Handler.handle(Handler.java:42)
2024-01-02 WARN slow response
`

func newLoader(t *testing.T) (*loader.Loader, string) {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"javaapp-1.log", "strict-1.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(javaLog), 0o600))
	}
	return loader.New(cfg, sources.NewFileSource()), dir
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestLoader_Run(t *testing.T) {
	l, dir := newLoader(t)
	path := filepath.Join(dir, "javaapp-1.log")

	tests := []struct {
		name       string
		start, end int
		wantLevels []string
	}{
		{name: "everything", start: 1, end: 0, wantLevels: []string{"INFO", "ERROR", "WARN"}},
		{name: "middle record", start: 2, end: 2, wantLevels: []string{"ERROR"}},
		{name: "past the end", start: 4, end: 9, wantLevels: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := l.Run(context.Background(), loader.Request{
				Location: path,
				Start:    tt.start,
				End:      tt.end,
				Meta:     multiline.Metadata{"job": "nightly"},
			})
			require.NoError(t, err)
			assert.Equal(t, "javaapp", result.LogType)
			assert.Equal(t, "file", result.SourceUsed)
			assert.NotEmpty(t, result.RunID)
			assert.Equal(t, len(tt.wantLevels), result.Emitted)

			var levels []string
			for _, rec := range result.Records {
				levels = append(levels, rec.Fields["level"])
				assert.Equal(t, "nightly", rec.Meta["job"])
				assert.Equal(t, path, rec.Meta["location"])
			}
			assert.Equal(t, tt.wantLevels, levels)
		})
	}
}

func TestLoader_Run_MultilineRecord(t *testing.T) {
	l, dir := newLoader(t)
	result, err := l.Run(context.Background(), loader.Request{
		Location: filepath.Join(dir, "javaapp-1.log"),
		Start:    2,
		End:      2,
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	rec := result.Records[0]
	assert.Equal(t, 2, rec.Ordinal)
	assert.Equal(t, "2024-01-01 ERROR request failed\njava.lang.IllegalStateException: boom\n\tat com.example.Handler.handle(Handler.java:42)", rec.Raw)
	assert.Equal(t, "request failed\njava.lang.IllegalStateException: boom\n\tat com.example.Handler.handle(Handler.java:42)", rec.Fields["msg"])
}

func TestLoader_Run_ExplicitLogType(t *testing.T) {
	l, dir := newLoader(t)
	result, err := l.Run(context.Background(), loader.Request{
		Location: filepath.Join(dir, "javaapp-1.log"),
		LogType:  "strict",
		Start:    1,
		End:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, "strict", result.LogType)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "service ready", result.Records[0].Fields["msg"])
}

func TestLoader_Run_Policies(t *testing.T) {
	l, dir := newLoader(t)
	path := filepath.Join(dir, "strict-1.log")

	_, err := l.Run(context.Background(), loader.Request{Location: path, Start: 1})
	require.Error(t, err)
	var derr *multiline.DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 2, derr.Ordinal)
	assert.Contains(t, derr.Raw, "IllegalStateException")

	result, err := l.Run(context.Background(), loader.Request{Location: path, Start: 1, Policy: loader.PolicySkip})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Emitted)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, 2, result.Skipped[0].Ordinal)
	assert.Equal(t, 3, result.Skipped[1].Ordinal)
}

func TestLoader_Run_ConfigErrors(t *testing.T) {
	l, dir := newLoader(t)

	_, err := l.Run(context.Background(), loader.Request{Location: filepath.Join(dir, "javaapp-1.log"), LogType: "nginx"})
	assert.ErrorIs(t, err, multiline.ErrConfig)

	// The missing log_pattern is reported before the (absent) file is opened.
	_, err = l.Run(context.Background(), loader.Request{Location: filepath.Join(dir, "nopattern.log"), Start: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, multiline.ErrConfig)
	assert.Contains(t, err.Error(), "log_pattern")

	_, err = l.Run(context.Background(), loader.Request{Location: filepath.Join(dir, "other.log")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no log type matches")

	_, err = l.Run(context.Background(), loader.Request{Location: filepath.Join(dir, "javaapp-1.log"), Policy: "retry"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown decode error policy")
}

func TestLoader_Stream_EmitErrorStops(t *testing.T) {
	l, dir := newLoader(t)
	stop := errors.New("stop")
	calls := 0
	summary, err := l.Stream(context.Background(), loader.Request{Location: filepath.Join(dir, "javaapp-1.log"), Start: 1},
		func(multiline.Record) error {
			calls++
			return stop
		})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
	assert.Zero(t, summary.Emitted)
}

func TestLoader_Stream_Cancelled(t *testing.T) {
	l, dir := newLoader(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Stream(ctx, loader.Request{Location: filepath.Join(dir, "javaapp-1.log"), Start: 1},
		func(multiline.Record) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_CancelledWhileSkippingLines(t *testing.T) {
	l, dir := newLoader(t)
	path := filepath.Join(dir, "javaapp-big.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat(javaLog, 500)), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No record falls in the window, so nothing is ever emitted.
	_, err := l.Stream(ctx, loader.Request{Location: path, Start: 100000, End: 100001},
		func(multiline.Record) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	_, err = l.Count(ctx, path, "")
	assert.ErrorIs(t, err, context.Canceled)
}

// ---------------------------------------------------------------------------
// Count / Format / ResolveLogType
// ---------------------------------------------------------------------------

func TestLoader_Count(t *testing.T) {
	l, dir := newLoader(t)
	n, err := l.Count(context.Background(), filepath.Join(dir, "javaapp-1.log"), "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = l.Count(context.Background(), filepath.Join(dir, "javaapp-missing.log"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_FormatShared(t *testing.T) {
	l, _ := newLoader(t)
	a, err := l.Format("javaapp")
	require.NoError(t, err)
	b, err := l.Format("javaapp")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestLoader_ResolveLogType(t *testing.T) {
	l, _ := newLoader(t)

	name, err := l.ResolveLogType("s3://bucket/AWSLogs/javaapp/2024/01/01/app.log")
	require.NoError(t, err)
	assert.Equal(t, "javaapp", name)

	name, err = l.ResolveLogType("/var/log/strict-2.log")
	require.NoError(t, err)
	assert.Equal(t, "strict", name)

	_, err = l.ResolveLogType("/var/log/syslog")
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := loader.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, loader.PolicyAbort, p)

	p, err = loader.ParsePolicy("skip")
	require.NoError(t, err)
	assert.Equal(t, loader.PolicySkip, p)

	_, err = loader.ParsePolicy("quarantine")
	assert.Error(t, err)
}
