// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gemaraproj/multiline-loader/internal/config"
	"github.com/gemaraproj/multiline-loader/internal/logging"
	"github.com/gemaraproj/multiline-loader/internal/multiline"
)

// MetadataExtractLogRecords describes the extract_log_records tool.
var MetadataExtractLogRecords = &mcp.Tool{
	Name: "extract_log_records",
	Description: "Split raw log text into multiline records and decode each record into named fields. " +
		"A record starts at every line matching multiline_firstline and runs until the next such line. " +
		"Records are numbered from 1; start and end select an inclusive window of them. " +
		"Patterns come from the named log_type, or are given directly (direct patterns win).",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Raw log text",
			},
			"log_type": map[string]interface{}{
				"type":        "string",
				"description": "Configured log type providing multiline_firstline and log_pattern.",
			},
			"multiline_firstline": map[string]interface{}{
				"type":        "string",
				"description": "Regex matching the first line of a record (matched at line start).",
			},
			"log_pattern": map[string]interface{}{
				"type":        "string",
				"description": "Regex with named groups applied to each assembled record.",
			},
			"start": map[string]interface{}{
				"type":        "integer",
				"description": "First record ordinal to return (default 1).",
			},
			"end": map[string]interface{}{
				"type":        "integer",
				"description": "Last record ordinal to return. 0 or omitted returns through the last record.",
			},
			"on_error": map[string]interface{}{
				"type":        "string",
				"description": "abort (default) fails the call on the first record that does not match log_pattern; skip reports it and continues.",
				"enum":        []string{"abort", "skip"},
			},
			"source_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional identifier for the content, echoed on every record.",
			},
		},
	},
}

// MetadataCountLogRecords describes the count_log_records tool.
var MetadataCountLogRecords = &mcp.Tool{
	Name:        "count_log_records",
	Description: "Count the multiline records in raw log text, i.e. the lines matching multiline_firstline.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Raw log text",
			},
			"log_type": map[string]interface{}{
				"type":        "string",
				"description": "Configured log type providing multiline_firstline.",
			},
			"multiline_firstline": map[string]interface{}{
				"type":        "string",
				"description": "Regex matching the first line of a record (matched at line start).",
			},
		},
	},
}

// InputExtractLogRecords is the input for the ExtractLogRecords tool.
type InputExtractLogRecords struct {
	Content            string `json:"content"`
	LogType            string `json:"log_type"`
	MultilineFirstline string `json:"multiline_firstline"`
	LogPattern         string `json:"log_pattern"`
	Start              int    `json:"start"`
	End                int    `json:"end"`
	OnError            string `json:"on_error"`
	SourceID           string `json:"source_id"`
}

type ExtractedRecord struct {
	Ordinal  int               `json:"ordinal"`
	Raw      string            `json:"raw"`
	Fields   map[string]string `json:"fields"`
	SourceID string            `json:"source_id"`
}

// RecordFailure is a record the log pattern rejected.
type RecordFailure struct {
	Ordinal int    `json:"ordinal"`
	Raw     string `json:"raw"`
	Pattern string `json:"pattern"`
}

// OutputExtractLogRecords is the output for the ExtractLogRecords tool.
type OutputExtractLogRecords struct {
	Records []ExtractedRecord `json:"records"`
	// Failures lists skipped records when on_error is skip.
	Failures []RecordFailure `json:"failures,omitempty"`
	LogType  string          `json:"log_type"`
}

// InputCountLogRecords is the input for the CountLogRecords tool.
type InputCountLogRecords struct {
	Content            string `json:"content"`
	LogType            string `json:"log_type"`
	MultilineFirstline string `json:"multiline_firstline"`
}

type OutputCountLogRecords struct {
	Count   int    `json:"count"`
	LogType string `json:"log_type"`
}

// Tools holds the configuration the tool handlers resolve log types from.
type Tools struct {
	cfg *config.Config
}

func NewTools(cfg *config.Config) *Tools {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Tools{cfg: cfg}
}

// format builds a Format from the named log type, overridden by any pattern
// given directly.
func (t *Tools) format(logType, firstLine, logPattern string) (*multiline.Format, error) {
	var patterns multiline.Patterns
	if logType != "" {
		lt, ok := t.cfg.LogType(logType)
		if !ok {
			return nil, fmt.Errorf("unknown log type %q", logType)
		}
		patterns = lt.Patterns()
	} else {
		logType = "inline"
	}
	if firstLine != "" {
		patterns.FirstLine = firstLine
	}
	if logPattern != "" {
		patterns.LogPattern = logPattern
	}
	return multiline.NewFormat(logType, patterns, multiline.WithLogger(logging.New("tool"))), nil
}

// ExtractLogRecords decodes the requested window of records from the content.
func (t *Tools) ExtractLogRecords(_ context.Context, _ *mcp.CallToolRequest, input InputExtractLogRecords) (*mcp.CallToolResult, OutputExtractLogRecords, error) {
	skip := false
	switch input.OnError {
	case "", "abort":
	case "skip":
		skip = true
	default:
		return nil, OutputExtractLogRecords{}, fmt.Errorf("on_error must be abort or skip, got %q", input.OnError)
	}

	f, err := t.format(input.LogType, input.MultilineFirstline, input.LogPattern)
	if err != nil {
		return nil, OutputExtractLogRecords{}, err
	}

	start, end := input.Start, input.End
	if start == 0 {
		start = 1
	}
	if end <= 0 {
		end = math.MaxInt
	}

	output := OutputExtractLogRecords{Records: []ExtractedRecord{}, LogType: f.LogType()}
	lines := multiline.LinesFromReader(strings.NewReader(input.Content))
	for rec, err := range f.Extract(lines, start, end, nil) {
		if err != nil {
			var derr *multiline.DecodeError
			if skip && errors.As(err, &derr) {
				output.Failures = append(output.Failures, RecordFailure{Ordinal: derr.Ordinal, Raw: derr.Raw, Pattern: derr.Pattern})
				continue
			}
			return nil, OutputExtractLogRecords{}, err
		}
		output.Records = append(output.Records, ExtractedRecord{
			Ordinal:  rec.Ordinal,
			Raw:      rec.Raw,
			Fields:   rec.Fields,
			SourceID: input.SourceID,
		})
	}
	return nil, output, nil
}

// CountLogRecords counts the records in the content.
func (t *Tools) CountLogRecords(_ context.Context, _ *mcp.CallToolRequest, input InputCountLogRecords) (*mcp.CallToolResult, OutputCountLogRecords, error) {
	f, err := t.format(input.LogType, input.MultilineFirstline, "")
	if err != nil {
		return nil, OutputCountLogRecords{}, err
	}
	n, err := f.CountRecords(multiline.LinesFromReader(strings.NewReader(input.Content)))
	if err != nil {
		return nil, OutputCountLogRecords{}, err
	}
	return nil, OutputCountLogRecords{Count: n, LogType: f.LogType()}, nil
}
