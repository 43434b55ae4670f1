// Package tabular implements the conversion pipeline between spreadsheet
// payloads and validated, typed row records.
//
// This package contains all domain logic independent of any transport layer.
// It can be used by web handlers, CLI tools, or tests without modification.
//
// # Reading
//
// A [Reader] turns a binary spreadsheet payload into a slice of [Record]
// values. Each configured column is located by its external header, coerced
// to the kind declared in the schema (or rewritten by a per-field transform),
// and the assembled record is validated:
//
//	reader, err := tabular.NewReader(codec, mappings, schema, logger)
//	records, err := reader.Parse(payload)
//
// Reading is fail-fast at the header-check and validation stages: a missing
// required column or the first invalid row aborts the whole call. Per-field
// transforms are deliberately best-effort instead: a failing transform is
// logged as a warning and the raw value kept, so schema validation gets the
// final word.
//
// # Writing
//
// A [Writer] serializes records to a single-sheet XLSX workbook or a
// delimited-text document, optionally transforming rows, dropping columns,
// and renaming headers first:
//
//	writer := tabular.NewWriter(codec)
//	text, err := writer.WriteCSV(records, tabular.WriteOptions{
//	    ExcludeColumns: []string{"email"},
//	    HeaderMapping:  map[string]string{"name": "Full Name"},
//	})
//
// Unlike the reader's per-field transforms, a writer row transform error is
// fatal and propagates to the caller unchanged.
//
// # Collaborators
//
// The spreadsheet container format is handled by an injected [Codec]
// (implemented on excelize in internal/sheetio), and record validation by an
// injected [Validator] (default implementation [Schema]). Both are small
// interfaces so tests can substitute fakes.
package tabular
