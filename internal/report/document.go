package report

import (
	"fmt"
	"strings"
	"time"
)

// Document is a Markdown file made of an introduction and summaries, one per
// heading.
type Document struct {
	Title     string
	Generated time.Time
	Intro     []string
	Parts     []*Summary
}

// NewDocument creates a document stamped with the current time.
func NewDocument(title string) *Document {
	return &Document{Title: title, Generated: time.Now()}
}

// Add appends a summary as the next heading.
func (d *Document) Add(s *Summary) {
	d.Parts = append(d.Parts, s)
}

// Markdown renders the document.
func (d *Document) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	if !d.Generated.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n\n", d.Generated.Format("2006-01-02 15:04:05"))
	}
	for _, p := range d.Intro {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	for _, s := range d.Parts {
		b.WriteString(s.markdown(2))
	}
	return b.String()
}
