// Package importer reads fill-up logs from CSV files exported by other apps
// or by oktan itself.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyFile is returned when the input has no header row.
var ErrEmptyFile = errors.New("csv file is empty")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseResult holds the raw header and data rows of a CSV file.
type ParseResult struct {
	Headers []string
	Rows    [][]string
}

// Parse reads a CSV document. Fields are trimmed, a leading byte order mark
// is dropped and rows with only empty fields are skipped. Rows may have
// fewer or more fields than the header.
func Parse(r io.Reader) (*ParseResult, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var result ParseResult
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		trimmed, blank := trimRow(row)
		if blank {
			continue
		}
		if result.Headers == nil {
			result.Headers = trimmed
			continue
		}
		result.Rows = append(result.Rows, trimmed)
	}

	if result.Headers == nil {
		return nil, ErrEmptyFile
	}
	return &result, nil
}

func trimRow(row []string) ([]string, bool) {
	out := make([]string, len(row))
	blank := true
	for i, v := range row {
		out[i] = strings.TrimSpace(v)
		if out[i] != "" {
			blank = false
		}
	}
	return out, blank
}
