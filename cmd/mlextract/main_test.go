// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliConfig = `
logtypes:
  app:
    s3_key: 'app.*\.log'
    multiline_firstline: 'START'
    log_pattern: 'START id=(?P<id>\d+)(?P<body>(?s:.*))'
`

func writeFixtures(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	configPath = filepath.Join(dir, "logtypes.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cliConfig), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app-1.log"),
		[]byte("START id=1\nbody1\nbody2\nSTART id=2\nbody3\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app-2.log"),
		[]byte("START id=3\nSTART id=4\nSTART id=5\n"), 0o600))
	return dir, configPath
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeLines(t *testing.T, s string) []outputRecord {
	t.Helper()
	var recs []outputRecord
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		var rec outputRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		recs = append(recs, rec)
	}
	return recs
}

func TestCount(t *testing.T) {
	dir, cfg := writeFixtures(t)
	out, err := run(t, "", "count", "--config", cfg, filepath.Join(dir, "app-1.log"), filepath.Join(dir, "app-2.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2\t"))
	assert.True(t, strings.HasPrefix(lines[1], "3\t"))
}

func TestExtract_Window(t *testing.T) {
	dir, cfg := writeFixtures(t)
	out, err := run(t, "", "extract", "--config", cfg, "--start", "2", "--end", "2",
		"--meta", "job=nightly", filepath.Join(dir, "app-1.log"), filepath.Join(dir, "app-2.log"))
	require.NoError(t, err)

	recs := decodeLines(t, out)
	require.Len(t, recs, 2)
	assert.Equal(t, "START id=2\nbody3", recs[0].Raw)
	assert.Equal(t, "2", recs[0].Fields["id"])
	assert.Equal(t, "nightly", recs[0].Meta["job"])
	assert.Equal(t, filepath.Join(dir, "app-1.log"), recs[0].Meta["location"])
	assert.Equal(t, "4", recs[1].Fields["id"])
}

func TestExtract_Stdin(t *testing.T) {
	_, cfg := writeFixtures(t)
	out, err := run(t, "noise\nSTART id=9\ntrailer\n", "extract", "--config", cfg, "--log-type", "app", "-")
	require.NoError(t, err)

	recs := decodeLines(t, out)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Ordinal)
	assert.Equal(t, "START id=9\ntrailer", recs[0].Raw)
}

func TestExtract_Errors(t *testing.T) {
	dir, cfg := writeFixtures(t)

	_, err := run(t, "", "extract", "--config", cfg, "--on-error", "retry", filepath.Join(dir, "app-1.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown decode error policy")

	_, err = run(t, "", "extract", "--config", filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "app-1.log"))
	require.Error(t, err)

	_, err = run(t, "", "extract", "--config", cfg)
	require.Error(t, err)
}

func TestLocalRunWithoutAWSSettings(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	dir, cfg := writeFixtures(t)

	out, err := run(t, "", "count", "--config", cfg, filepath.Join(dir, "app-1.log"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "2\t"))

	out, err = run(t, "", "extract", "--config", cfg, filepath.Join(dir, "app-1.log"))
	require.NoError(t, err)
	assert.Len(t, decodeLines(t, out), 2)

	_, err = run(t, "", "count", "--config", cfg, "--log-type", "app", "s3://bucket/app-1.log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_REGION not set")
}
