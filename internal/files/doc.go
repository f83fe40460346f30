// Package files finds the data files the explorer and the batch jobs work on.
//
// Discovery lists loadable files (CSV, TSV, Excel and Stata) in a directory,
// resolving relative directories against a base path, normally the
// configured data directory.
//
// Example usage:
//
//	discovery := files.NewDiscovery(cfg.Paths.DataDir)
//
//	// Every CSV, XLSX and DTA file under data/core_tables
//	found, err := discovery.FindDataFiles("core_tables")
package files
