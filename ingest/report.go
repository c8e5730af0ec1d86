package ingest

import "fmt"

// ImportError is a whole-payload failure: the import produced nothing.
// Row-level problems are warnings in the ImportReport instead, so a single
// bad row never aborts an import.
type ImportError struct {
	Reason string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import error: %s", e.Reason)
}

// ImportReport summarizes one import pass, including every row that was
// skipped or dropped and why.
type ImportReport struct {
	Format    PayloadFormat `json:"format"`
	TotalRows int           `json:"total_rows"`
	Imported  int           `json:"imported"`
	Skipped   int           `json:"skipped"`
	// Truncated counts valid rows dropped because the row cap was reached.
	Truncated int      `json:"truncated"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (r *ImportReport) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
