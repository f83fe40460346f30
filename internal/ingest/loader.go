// Package ingest loads the vendor exports and intermediate files the jobs
// consume. Delimited text is sniffed for its delimiter and decoded from
// legacy Windows encodings when it is not UTF-8; Excel workbooks and Stata
// files are read into the same string table.
package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/table"
)

// Format names the file type a table was read from.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatDTA  Format = "dta"
)

// Options controls how files are read.
type Options struct {
	// Delimiters are the candidate field separators, in tie-break order.
	Delimiters []rune
	// Encodings are the legacy encodings tried when text is not UTF-8. Only
	// the first is used.
	Encodings []string
	// Sheet selects the workbook sheet; empty means the first sheet.
	Sheet string
}

// DefaultOptions matches the vendor exports the pipeline was built for.
func DefaultOptions() Options {
	return Options{
		Delimiters: []rune{';', ',', '\t'},
		Encodings:  []string{"windows-1252"},
	}
}

// Source describes where and how a table was read.
type Source struct {
	Path          string
	Format        Format
	Delimiter     rune
	Encoding      string
	Sheet         string
	HeaderSkipped bool
}

// Loader reads input files.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// NewLoader creates a loader. Empty option fields fall back to
// DefaultOptions.
func NewLoader(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if len(opts.Delimiters) == 0 {
		opts.Delimiters = def.Delimiters
	}
	if len(opts.Encodings) == 0 {
		opts.Encodings = def.Encodings
	}
	return &Loader{opts: opts, logger: logger.With(slog.String("component", "ingest"))}
}

// Load reads path with the given options using the default logger.
func Load(ctx context.Context, path string, opts Options) (*table.Table, Source, error) {
	return NewLoader(opts, nil).Load(ctx, path)
}

// Load reads a file, choosing the reader from its extension.
func (l *Loader) Load(ctx context.Context, path string) (*table.Table, Source, error) {
	src := Source{Path: path}
	if err := ctx.Err(); err != nil {
		return nil, src, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, src, apperrors.NewNotFoundError("input file " + path)
		}
		return nil, src, apperrors.NewStorageError("failed to stat input file", err).WithContext("path", path)
	}
	if info.IsDir() {
		return nil, src, apperrors.NewValidationError("input path is a directory").WithContext("path", path)
	}

	start := time.Now()
	var t *table.Table
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt", ".tsv":
		t, err = l.loadCSV(path, &src)
	case ".xlsx", ".xlsm":
		t, err = l.loadXLSX(ctx, path, &src)
	case ".dta":
		t, err = l.loadDTA(path, &src)
	default:
		return nil, src, apperrors.NewParsingError("unsupported file extension", nil).
			WithContext("path", path).
			WithContext("extension", ext)
	}
	if err != nil {
		return nil, src, err
	}

	l.logger.InfoContext(ctx, "Loaded input file",
		slog.String("path", path),
		slog.String("format", string(src.Format)),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.Columns())),
		slog.Bool("header_skipped", src.HeaderSkipped),
		slog.Duration("elapsed", time.Since(start)))
	return t, src, nil
}
