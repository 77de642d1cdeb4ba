// SPDX-License-Identifier: Apache-2.0

// Package config loads the log type definitions the loader extracts with.
//
// A configuration file is YAML:
//
//	logtypes:
//	  tomcat:
//	    s3_key: 'catalina\..*\.log'
//	    multiline_firstline: '\d{2}-\w{3}-\d{4}'
//	    log_pattern: '(?P<time>\S+ \S+) (?P<level>\w+) (?P<msg>(?s:.*))'
//
// The file is checked against a CUE schema on load. Whether a log type has the
// patterns it needs is left to the code that uses them.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/gemaraproj/multiline-loader/internal/multiline"
)

// ErrInvalid marks a configuration document that fails the schema.
var ErrInvalid = errors.New("invalid configuration")

type LogType struct {
	// S3Key selects this log type for objects whose key matches it.
	S3Key      string `yaml:"s3_key" json:"s3_key,omitempty"`
	FirstLine  string `yaml:"multiline_firstline" json:"multiline_firstline,omitempty"`
	LogPattern string `yaml:"log_pattern" json:"log_pattern,omitempty"`
}

// Patterns returns the expressions the multiline core resolves.
func (lt LogType) Patterns() multiline.Patterns {
	return multiline.Patterns{FirstLine: lt.FirstLine, LogPattern: lt.LogPattern}
}

// MatchesKey reports whether key selects this log type.
func (lt LogType) MatchesKey(key string) (bool, error) {
	if lt.S3Key == "" {
		return false, nil
	}
	re, err := regexp.Compile(lt.S3Key)
	if err != nil {
		return false, fmt.Errorf("s3_key: %w", err)
	}
	return re.MatchString(key), nil
}

type Config struct {
	LogTypes map[string]LogType `yaml:"logtypes" json:"logtypes"`
}

// Names returns the configured log type names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.LogTypes))
	for name := range c.LogTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) LogType(name string) (LogType, bool) {
	lt, ok := c.LogTypes[name]
	return lt, ok
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates a YAML configuration document and decodes it.
func Parse(data []byte) (*Config, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if cfg.LogTypes == nil {
		cfg.LogTypes = map[string]LogType{}
	}
	return cfg, nil
}
