package exporter

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/mkguldan/empirical/internal/errors"
	"github.com/mkguldan/empirical/internal/table"
)

// Stata dta release 117 constants.
const (
	dtaRelease       = "117"
	dtaMaxStrf       = 2045
	dtaTypeStrL      = 32768
	dtaTypeDouble    = 65526
	dtaNameLen       = 33 // 32 bytes plus terminator
	dtaFormatLen     = 49
	dtaLabelNameLen  = 33
	dtaVarLabelLen   = 81
	dtaMaxLabel      = 80
	dtaMaxVarName    = 32
	dtaMapEntries    = 14
	dtaStrLASCII     = 130
	dtaDoubleFormat  = "%10.0g"
	dtaTimestampForm = "02 Jan 2006 15:04"
)

// Stata's system missing value for doubles is 2^1023.
var dtaMissingDouble = math.Float64frombits(0x7fe0000000000000)

var stataReserved = map[string]bool{
	"_all": true, "_b": true, "byte": true, "_coef": true, "_cons": true,
	"double": true, "float": true, "if": true, "in": true, "int": true,
	"long": true, "_n": true, "_N": true, "_pi": true, "_pred": true,
	"_rc": true, "_skip": true, "strL": true, "using": true, "with": true,
}

// DTAWriter writes tables as Stata 13 (release 117) datasets.
type DTAWriter struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewDTAWriter creates a Stata writer.
func NewDTAWriter(logger *slog.Logger) *DTAWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DTAWriter{logger: logger, now: time.Now}
}

type dtaColumn struct {
	name   string
	label  string
	typ    uint16
	width  int
	format string
}

// Write writes t to path. Columns whose non-empty cells all parse as numbers
// become doubles; the rest become fixed-width strings, or strL beyond 2045
// bytes. Variable names are made Stata-safe and the original header is kept
// as the variable label.
func (w *DTAWriter) Write(path string, t *table.Table, label string) error {
	if len(t.Columns()) > math.MaxUint16 {
		return apperrors.NewValidationError("too many columns for Stata").WithContext("columns", len(t.Columns()))
	}
	if uint64(t.Len()) > math.MaxUint32 {
		return apperrors.NewValidationError("too many rows for Stata").WithContext("rows", t.Len())
	}

	cols := inferColumns(t)
	data := w.encode(t, cols, label)

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.NewStorageError("failed to write Stata file", err).WithContext("path", path)
	}

	renamed := 0
	for _, c := range cols {
		if c.name != c.label {
			renamed++
		}
	}
	w.logger.Debug("Wrote Stata file",
		slog.String("path", path),
		slog.Int("rows", t.Len()),
		slog.Int("variables", len(cols)),
		slog.Int("renamed", renamed))
	return nil
}

func inferColumns(t *table.Table) []dtaColumn {
	header := t.Columns()
	names := StataNames(header)
	cols := make([]dtaColumn, len(header))
	for j, h := range header {
		c := dtaColumn{name: names[j], label: truncateBytes(h, dtaMaxLabel)}
		numeric := true
		width := 1
		for i := 0; i < t.Len(); i++ {
			v := t.Get(i, h)
			if len(v) > width {
				width = len(v)
			}
			if numeric && strings.TrimSpace(v) != "" {
				if _, ok := table.ParseFloat(v); !ok {
					numeric = false
				}
			}
		}
		switch {
		case numeric:
			c.typ, c.width, c.format = dtaTypeDouble, 8, dtaDoubleFormat
		case width > dtaMaxStrf:
			c.typ, c.width, c.format = dtaTypeStrL, 8, "%9s"
		default:
			c.typ, c.width, c.format = uint16(width), width, fmt.Sprintf("%%%ds", min(width, 244))
		}
		cols[j] = c
	}
	return cols
}

// StataNames converts headers into valid, unique Stata variable names.
func StataNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		base := sanitizeName(h)
		name := base
		for n := 2; used[name]; n++ {
			suffix := fmt.Sprintf("_%d", n)
			name = truncateBytes(base, dtaMaxVarName-len(suffix)) + suffix
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" {
		name = "var"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	if stataReserved[name] || isStrType(name) {
		name = "_" + name
	}
	return truncateBytes(name, dtaMaxVarName)
}

// isStrType reports names such as str12 that Stata reserves for types.
func isStrType(name string) bool {
	if !strings.HasPrefix(name, "str") || len(name) == 3 {
		return false
	}
	for _, r := range name[3:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

type dtaBuffer struct {
	bytes.Buffer
}

func (b *dtaBuffer) tag(s string) { b.WriteString(s) }

func (b *dtaBuffer) u16(v uint16) { _ = binary.Write(b, binary.LittleEndian, v) }
func (b *dtaBuffer) u32(v uint32) { _ = binary.Write(b, binary.LittleEndian, v) }
func (b *dtaBuffer) u64(v uint64) { _ = binary.Write(b, binary.LittleEndian, v) }
func (b *dtaBuffer) f64(v float64) {
	_ = binary.Write(b, binary.LittleEndian, math.Float64bits(v))
}

// fixed writes s null-padded to exactly n bytes.
func (b *dtaBuffer) fixed(s string, n int) {
	s = truncateBytes(s, n)
	b.WriteString(s)
	b.Write(make([]byte, n-len(s)))
}

func (w *DTAWriter) encode(t *table.Table, cols []dtaColumn, label string) []byte {
	var b dtaBuffer
	offsets := make([]uint64, dtaMapEntries)
	mark := func(i int) { offsets[i] = uint64(b.Len()) }

	mark(0)
	b.tag("<stata_dta><header><release>" + dtaRelease + "</release><byteorder>LSF</byteorder><K>")
	b.u16(uint16(len(cols)))
	b.tag("</K><N>")
	b.u32(uint32(t.Len()))
	b.tag("</N><label>")
	label = truncateBytes(label, dtaMaxLabel)
	b.WriteByte(byte(len(label)))
	b.WriteString(label)
	b.tag("</label><timestamp>")
	ts := w.now().Format(dtaTimestampForm)
	b.WriteByte(byte(len(ts)))
	b.WriteString(ts)
	b.tag("</timestamp></header>")

	mark(1)
	b.tag("<map>")
	mapPos := b.Len()
	for range offsets {
		b.u64(0)
	}
	b.tag("</map>")

	mark(2)
	b.tag("<variable_types>")
	for _, c := range cols {
		b.u16(c.typ)
	}
	b.tag("</variable_types>")

	mark(3)
	b.tag("<varnames>")
	for _, c := range cols {
		b.fixed(c.name, dtaNameLen)
	}
	b.tag("</varnames>")

	mark(4)
	b.tag("<sortlist>")
	for i := 0; i <= len(cols); i++ {
		b.u16(0)
	}
	b.tag("</sortlist>")

	mark(5)
	b.tag("<formats>")
	for _, c := range cols {
		b.fixed(c.format, dtaFormatLen)
	}
	b.tag("</formats>")

	mark(6)
	b.tag("<value_label_names>")
	for range cols {
		b.fixed("", dtaLabelNameLen)
	}
	b.tag("</value_label_names>")

	mark(7)
	b.tag("<variable_labels>")
	for _, c := range cols {
		b.fixed(c.label, dtaVarLabelLen)
	}
	b.tag("</variable_labels>")

	mark(8)
	b.tag("<characteristics></characteristics>")

	// strL payloads are collected while writing the data and emitted after.
	type gso struct {
		v, o uint32
		data string
	}
	var strls []gso

	mark(9)
	b.tag("<data>")
	header := t.Columns()
	for i := 0; i < t.Len(); i++ {
		for j, c := range cols {
			cell := t.Get(i, header[j])
			switch c.typ {
			case dtaTypeDouble:
				if v, ok := table.ParseFloat(cell); ok {
					b.f64(v)
				} else {
					b.f64(dtaMissingDouble)
				}
			case dtaTypeStrL:
				if cell == "" {
					b.u32(0)
					b.u32(0)
					continue
				}
				v, o := uint32(j+1), uint32(i+1)
				b.u32(v)
				b.u32(o)
				strls = append(strls, gso{v: v, o: o, data: cell})
			default:
				b.fixed(cell, c.width)
			}
		}
	}
	b.tag("</data>")

	mark(10)
	b.tag("<strls>")
	for _, s := range strls {
		b.tag("GSO")
		b.u32(s.v)
		b.u32(s.o)
		b.WriteByte(dtaStrLASCII)
		b.u32(uint32(len(s.data) + 1))
		b.WriteString(s.data)
		b.WriteByte(0)
	}
	b.tag("</strls>")

	mark(11)
	b.tag("<value_labels></value_labels>")

	mark(12)
	b.tag("</stata_dta>")
	mark(13)

	out := b.Bytes()
	for i, off := range offsets {
		binary.LittleEndian.PutUint64(out[mapPos+8*i:], off)
	}
	return out
}
