package exporter

import (
	"log/slog"
	"os"

	apperrors "github.com/mkguldan/empirical/internal/errors"
)

// MarkdownDocument is anything that renders itself as Markdown, such as a
// report.Document or report.Summary.
type MarkdownDocument interface {
	Markdown() string
}

// MarkdownWriter writes report documents.
type MarkdownWriter struct {
	logger *slog.Logger
}

// NewMarkdownWriter creates a Markdown writer.
func NewMarkdownWriter(logger *slog.Logger) *MarkdownWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarkdownWriter{logger: logger}
}

// Write renders doc to path.
func (w *MarkdownWriter) Write(path string, doc MarkdownDocument) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(doc.Markdown()), 0644); err != nil {
		return apperrors.NewStorageError("failed to write markdown", err).WithContext("path", path)
	}
	w.logger.Debug("Wrote markdown", slog.String("path", path))
	return nil
}
