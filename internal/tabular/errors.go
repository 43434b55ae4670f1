package tabular

// errors.go defines the error taxonomy of the pipeline. The web layer maps
// these to coded responses; everything here is transport-agnostic.

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyPayload is returned by Reader.Parse when decoding the spreadsheet
// yields zero data rows.
var ErrEmptyPayload = errors.New("spreadsheet contains no data rows")

// MissingHeadersError is returned when one or more required columns are
// absent from the sheet's header row. Missing lists the external labels in
// the order the column mappings declare them.
type MissingHeadersError struct {
	Missing []string
}

func (e *MissingHeadersError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// RowValidationError is returned for the first data row that fails schema
// validation. Row is the 1-based spreadsheet row number, offset by the
// header row, so the first data row is reported as row 2. Fields maps field
// names to validation messages.
type RowValidationError struct {
	Row    int
	Fields map[string]string
}

func (e *RowValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return fmt.Sprintf("row %d invalid: %s", e.Row, strings.Join(parts, "; "))
}

// HeaderCollisionError is returned by the writer when two distinct fields
// would be renamed to the same output header, which would silently drop one
// of them.
type HeaderCollisionError struct {
	Header string
	Fields []string
}

func (e *HeaderCollisionError) Error() string {
	return fmt.Sprintf("fields %s both map to output header %q",
		strings.Join(e.Fields, " and "), e.Header)
}
