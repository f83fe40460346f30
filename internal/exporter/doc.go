// Package exporter writes job outputs for the analyst and for Stata.
//
// This package contains four writers and a coordinator:
//
// CSVWriter: comma-separated output with an optional UTF-8 BOM so Excel
// opens non-ASCII names correctly, plus a StreamWriter for row-at-a-time
// output.
//
// DTAWriter: Stata 13 (dta release 117) datasets. Column types are inferred
// from the cells, names are made Stata-safe and the original headers are kept
// as variable labels.
//
// XLSXWriter: single-sheet workbooks written through excelize's stream
// writer, with numeric cells stored as numbers.
//
// MarkdownWriter: report documents such as the data preparation log.
//
// Exporter: writes one table in every configured format concurrently and
// places the job summary next to it.
//
// Example usage:
//
//	exp := exporter.New(exporter.Options{BOM: true}, logger)
//
//	// Write deal_level_analysis.csv and deal_level_analysis.dta
//	paths, err := exp.WriteAll(ctx, "data/deal_level_analysis", deals, []string{"csv", "dta"})
//
//	// Write deal_level_analysis_summary.csv
//	_, err = exp.WriteSummary("data/deal_level_analysis", summary)
package exporter
