// Package report builds the human-readable output of each job: a console
// rendering for the analyst, a Markdown document, and a flat summary table
// that is written next to the job's data file.
package report

import (
	"fmt"
	"io"
	"strings"

	pretty "github.com/jedib0t/go-pretty/v6/table"

	"github.com/mkguldan/empirical/internal/table"
)

// Metric is one named headline number.
type Metric struct {
	Name  string
	Value string
}

// Section is a titled table inside a summary.
type Section struct {
	Title  string
	Header []string
	Rows   [][]string
}

// AddRow appends a row to the section.
func (s *Section) AddRow(cells ...string) {
	s.Rows = append(s.Rows, cells)
}

// Check is a data validation result.
type Check struct {
	Name   string
	Passed bool
	Detail string
}

// Summary is the report of one job run.
type Summary struct {
	Title   string
	Metrics []Metric
	Tables  []Section
	Checks  []Check
	Notes   []string
}

// NewSummary creates an empty summary.
func NewSummary(title string) *Summary {
	return &Summary{Title: title}
}

// AddMetric appends a headline metric.
func (s *Summary) AddMetric(name, value string) {
	s.Metrics = append(s.Metrics, Metric{Name: name, Value: value})
}

// AddTable appends a section.
func (s *Summary) AddTable(sec Section) {
	s.Tables = append(s.Tables, sec)
}

// AddCheck appends a validation result.
func (s *Summary) AddCheck(name string, passed bool, detail string) {
	s.Checks = append(s.Checks, Check{Name: name, Passed: passed, Detail: detail})
}

// AddNote appends a free-text line.
func (s *Summary) AddNote(format string, args ...any) {
	s.Notes = append(s.Notes, fmt.Sprintf(format, args...))
}

// Metric returns the value of a named metric.
func (s *Summary) Metric(name string) (string, bool) {
	for _, m := range s.Metrics {
		if m.Name == name {
			return m.Value, true
		}
	}
	return "", false
}

// Section returns the section with the given title.
func (s *Summary) Section(title string) (Section, bool) {
	for _, sec := range s.Tables {
		if sec.Title == title {
			return sec, true
		}
	}
	return Section{}, false
}

// Failed returns the checks that did not pass.
func (s *Summary) Failed() []Check {
	var out []Check
	for _, c := range s.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Render writes the summary to w as aligned console tables.
func (s *Summary) Render(w io.Writer) error {
	bar := strings.Repeat("=", max(len(s.Title), 20))
	if _, err := fmt.Fprintf(w, "\n%s\n%s\n%s\n", bar, s.Title, bar); err != nil {
		return err
	}

	if len(s.Metrics) > 0 {
		tw := newWriter(w)
		tw.AppendHeader(pretty.Row{"Metric", "Value"})
		for _, m := range s.Metrics {
			tw.AppendRow(pretty.Row{m.Name, m.Value})
		}
		tw.Render()
	}

	for _, sec := range s.Tables {
		if _, err := fmt.Fprintf(w, "\n%s\n", sec.Title); err != nil {
			return err
		}
		if len(sec.Rows) == 0 {
			if _, err := fmt.Fprintln(w, "(0 rows)"); err != nil {
				return err
			}
			continue
		}
		sectionWriter(w, sec).Render()
	}

	if len(s.Checks) > 0 {
		if _, err := fmt.Fprintln(w, "\nValidation"); err != nil {
			return err
		}
		tw := newWriter(w)
		tw.AppendHeader(pretty.Row{"Check", "Result", "Detail"})
		for _, c := range s.Checks {
			tw.AppendRow(pretty.Row{c.Name, passLabel(c.Passed), c.Detail})
		}
		tw.Render()
	}

	for _, n := range s.Notes {
		if _, err := fmt.Fprintf(w, "%s\n", n); err != nil {
			return err
		}
	}
	return nil
}

// Markdown renders the summary as a Markdown fragment headed at level 2.
func (s *Summary) Markdown() string {
	return s.markdown(2)
}

func (s *Summary) markdown(level int) string {
	var b strings.Builder
	h := strings.Repeat("#", level)
	fmt.Fprintf(&b, "%s %s\n\n", h, s.Title)

	if len(s.Metrics) > 0 {
		tw := pretty.NewWriter()
		tw.AppendHeader(pretty.Row{"Metric", "Value"})
		for _, m := range s.Metrics {
			tw.AppendRow(pretty.Row{m.Name, m.Value})
		}
		b.WriteString(tw.RenderMarkdown())
		b.WriteString("\n\n")
	}

	for _, sec := range s.Tables {
		fmt.Fprintf(&b, "%s# %s\n\n", h, sec.Title)
		if len(sec.Rows) == 0 {
			b.WriteString("_No rows._\n\n")
			continue
		}
		b.WriteString(sectionWriter(nil, sec).RenderMarkdown())
		b.WriteString("\n\n")
	}

	if len(s.Checks) > 0 {
		fmt.Fprintf(&b, "%s# Data Structure Checks\n\n", h)
		for _, c := range s.Checks {
			fmt.Fprintf(&b, "- %s: %s", c.Name, passLabel(c.Passed))
			if c.Detail != "" {
				fmt.Fprintf(&b, " (%s)", c.Detail)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for _, n := range s.Notes {
		b.WriteString(n)
		b.WriteString("\n\n")
	}
	return b.String()
}

// Table flattens the summary into Section/Metric/Value rows for the
// <output>_summary file.
func (s *Summary) Table() *table.Table {
	out := table.New("Section", "Metric", "Value")
	for _, m := range s.Metrics {
		out.Append("Summary", m.Name, m.Value)
	}
	for _, sec := range s.Tables {
		for _, r := range sec.Rows {
			if len(r) == 0 {
				continue
			}
			out.Append(sec.Title, r[0], strings.Join(r[1:], " | "))
		}
	}
	for _, c := range s.Checks {
		value := passLabel(c.Passed)
		if c.Detail != "" {
			value += ": " + c.Detail
		}
		out.Append("Validation", c.Name, value)
	}
	return out
}

func newWriter(w io.Writer) pretty.Writer {
	tw := pretty.NewWriter()
	if w != nil {
		tw.SetOutputMirror(w)
	}
	tw.SetStyle(pretty.StyleLight)
	return tw
}

func sectionWriter(w io.Writer, sec Section) pretty.Writer {
	tw := newWriter(w)
	if len(sec.Header) > 0 {
		tw.AppendHeader(toRow(sec.Header))
	}
	for _, r := range sec.Rows {
		tw.AppendRow(toRow(r))
	}
	return tw
}

func toRow(cells []string) pretty.Row {
	row := make(pretty.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func passLabel(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
