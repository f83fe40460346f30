// Package table provides the in-memory tabular data used by every vcpanel job.
//
// Vendor exports arrive as wide CSV, Excel or Stata files whose cells are
// mixed text and numbers. A Table keeps every cell as a string, with the empty
// string standing for a missing value, and parses numbers on demand through
// Row.Float. This keeps round trips through CSV lossless: a column nobody
// touches is written back exactly as it was read.
//
// Operations that select rows (Filter, DropDuplicates, SortStableBy, GroupBy)
// return new tables. Operations that compute columns (AddColumn, Apply, Set,
// Rename) modify the receiver and return it for chaining; callers that must
// keep their input intact Clone first.
//
// Example:
//
//	founders := master.Filter(func(r table.Row) bool {
//	    return strings.Contains(strings.ToLower(r.Get("Person_PrimaryPositionLevel")), "founder")
//	})
//	for _, g := range founders.GroupBy("CompanyID") {
//	    fmt.Println(g.Keys[0], g.Table.Len())
//	}
package table
