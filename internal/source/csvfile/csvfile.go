// Package csvfile provides a record source backed by a CSV fill-up log.
package csvfile

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ustunfatih/oktan/internal/importer"
	"github.com/ustunfatih/oktan/internal/source"
)

// SourceName is the identifier for CSV sources.
const SourceName = "csv"

// Options controls how the CSV columns are interpreted.
type Options struct {
	// Profile maps columns by header name. When nil the mapping is guessed
	// from the header.
	Profile *importer.MappingProfile
	// DateFormat overrides the guessed date format. Ignored with a Profile.
	DateFormat string
	// CommaDecimal reads "1,5" style numbers. Ignored with a Profile.
	CommaDecimal bool
}

// Source reads fill-ups from CSV data.
type Source struct {
	label  string
	open   func() (io.ReadCloser, error)
	opts   Options
	logger zerolog.Logger
}

// New creates a source that reads the CSV file at path.
func New(path string, opts Options, logger zerolog.Logger) *Source {
	return &Source{
		label: path,
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
		opts:   opts,
		logger: logger.With().Str("source", SourceName).Str("file", path).Logger(),
	}
}

// FromReader creates a source that reads CSV data from r once.
func FromReader(label string, r io.Reader, opts Options, logger zerolog.Logger) *Source {
	return &Source{
		label: label,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
		opts:   opts,
		logger: logger.With().Str("source", SourceName).Str("file", label).Logger(),
	}
}

// Name returns the source identifier.
func (s *Source) Name() string {
	return SourceName
}

// Fetch parses the CSV data and returns every valid row as a record.
func (s *Source) Fetch(ctx context.Context) (source.Batch, error) {
	f, err := s.open()
	if err != nil {
		return source.Batch{}, fmt.Errorf("opening %s: %w", s.label, err)
	}
	defer f.Close()

	result, err := importer.Parse(f)
	if err != nil {
		return source.Batch{}, fmt.Errorf("parsing %s: %w", s.label, err)
	}

	mapping, err := s.mapping(result.Headers)
	if err != nil {
		return source.Batch{}, err
	}

	var batch source.Batch
	for _, entry := range importer.Preview(result, mapping) {
		if err := ctx.Err(); err != nil {
			return source.Batch{}, err
		}
		if !entry.IsValid() {
			batch.Rejected = append(batch.Rejected, importer.RowError(entry))
			continue
		}
		batch.Records = append(batch.Records, entry.Record())
	}

	s.logger.Debug().
		Int("rows", len(result.Rows)).
		Int("valid", len(batch.Records)).
		Int("rejected", len(batch.Rejected)).
		Msg("parsed csv")

	return batch, nil
}

func (s *Source) mapping(headers []string) (importer.FieldMapping, error) {
	if s.opts.Profile != nil {
		m, err := s.opts.Profile.Resolve(headers)
		if err != nil {
			return importer.FieldMapping{}, fmt.Errorf("resolving mapping for %s: %w", s.label, err)
		}
		return m, nil
	}

	layout, err := importer.ResolveDateFormat(s.opts.DateFormat)
	if err != nil {
		return importer.FieldMapping{}, err
	}
	m := importer.SuggestMapping(headers)
	m.DateFormat = layout
	m.CommaDecimal = s.opts.CommaDecimal
	if !m.IsValid() {
		return importer.FieldMapping{}, fmt.Errorf("csv header %q needs date, liters and price per liter columns; use a mapping profile", headers)
	}
	return m, nil
}
