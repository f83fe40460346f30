package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Header Excel writes when a sheet is saved without column names.
const genericHeader = "Column1"

func (l *Loader) loadCSV(path string, src *Source) (*table.Table, error) {
	src.Format = FormatCSV

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read input file", err).WithContext("path", path)
	}

	data, src.Encoding, err = l.decode(data)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to decode input file", err).WithContext("path", path)
	}

	src.Delimiter = sniffDelimiter(data, l.opts.Delimiters)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = src.Delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse delimited file", err).WithContext("path", path)
	}
	records = dropBlankRecords(records)
	if len(records) == 0 {
		return nil, apperrors.NewParsingError("input file has no header", nil).WithContext("path", path)
	}

	if len(records[0]) > 0 && strings.TrimSpace(records[0][0]) == genericHeader && len(records) > 1 {
		records = records[1:]
		src.HeaderSkipped = true
	}

	return table.FromRecords(cleanHeader(records[0]), records[1:]), nil
}

// decode strips a UTF-8 BOM, or converts from the first legacy encoding when
// the bytes are not valid UTF-8.
func (l *Loader) decode(data []byte) ([]byte, string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return data[len(utf8BOM):], "utf-8-sig", nil
	}
	if utf8.Valid(data) {
		return data, "utf-8", nil
	}
	name := l.opts.Encodings[0]
	enc, err := legacyEncoding(name)
	if err != nil {
		return nil, "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", err
	}
	return out, name, nil
}

func legacyEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	default:
		return nil, apperrors.NewConfigError("unsupported encoding "+name, nil)
	}
}

// sniffDelimiter picks the candidate that splits the first line into the
// most fields. Ties go to the earlier candidate.
func sniffDelimiter(data []byte, candidates []rune) rune {
	line := firstLine(data)
	best, bestFields := candidates[0], 0
	for _, c := range candidates {
		r := csv.NewReader(strings.NewReader(line))
		r.Comma = c
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		rec, err := r.Read()
		if err != nil && err != io.EOF {
			continue
		}
		if len(rec) > bestFields {
			best, bestFields = c, len(rec)
		}
	}
	return best
}

func firstLine(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func dropBlankRecords(records [][]string) [][]string {
	out := records[:0]
	for _, rec := range records {
		for _, c := range rec {
			if strings.TrimSpace(c) != "" {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}
