// Package parser turns raw delimited-text uploads into header + record form.
// Parsing failures are per-file: callers keep the file in the batch with an
// error status instead of dropping the whole batch.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// ParseError reports that a file's content is not well-formed delimited text.
type ParseError struct {
	FileName string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.FileName, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.FileName, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// RawRecord maps original header text to the raw cell value of one row.
type RawRecord map[string]string

// Table is the parsed form of one uploaded file: the header row in original
// order plus one RawRecord per data row.
type Table struct {
	Headers []string
	Records []RawRecord
}

var delimiters = []rune{',', ';', '\t', '|'}

// Parse reads delimited text assuming a first-row header. The delimiter is
// detected from the header line (comma, semicolon, tab or pipe, whichever
// occurs most).
func Parse(name string, content []byte) (*Table, error) {
	text := strings.TrimSpace(string(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	if text == "" {
		return nil, &ParseError{FileName: name, Reason: "file is empty"}
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.TrimLeadingSpace = true
	// Exports from forensic tools are frequently ragged; short rows are padded
	// with empty values instead of rejected.
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{FileName: name, Reason: "malformed delimited text", Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{FileName: name, Reason: "file has no header row"}
	}

	headers := make([]string, 0, len(rows[0]))
	for _, h := range rows[0] {
		headers = append(headers, strings.TrimSpace(h))
	}

	table := &Table{
		Headers: headers,
		Records: make([]RawRecord, 0, len(rows)-1),
	}

	for _, row := range rows[1:] {
		record := make(RawRecord, len(headers))
		for i, header := range headers {
			if i < len(row) {
				record[header] = strings.TrimSpace(row[i])
			} else {
				record[header] = ""
			}
		}
		table.Records = append(table.Records, record)
	}

	return table, nil
}

// detectDelimiter picks the candidate delimiter with the highest count in the
// header line. Comma wins ties, matching its position in the candidate list.
func detectDelimiter(text string) rune {
	headerLine := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		headerLine = text[:idx]
	}

	best := ','
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(headerLine, string(d))
		if count > bestCount {
			best = d
			bestCount = count
		}
	}
	return best
}
