package tabular

// reader.go turns a binary spreadsheet payload into validated records.
//
// The pipeline per call is: decode (codec) -> header check -> per-row
// mapping and coercion -> schema validation. Errors at the header-check and
// validation stages abort the whole call; per-field transform errors are
// logged and the raw value kept.

import (
	"fmt"
	"log/slog"
)

// Codec is the spreadsheet container collaborator. Decode returns the first
// sheet's data rows keyed by the literal column headers, in header order; a
// fully blank sheet row decodes as a nil entry so slice positions track the
// sheet's row numbers. Encode builds a single-sheet workbook from shaped
// rows.
type Codec interface {
	Decode(data []byte) ([]*Record, error)
	Encode(sheetName string, headers []string, rows [][]any) ([]byte, error)
}

// Reader parses spreadsheet payloads into schema-valid records.
// Configuration is immutable after construction; a Reader is safe for
// concurrent use.
type Reader struct {
	codec    Codec
	mappings []ColumnMapping
	schema   Validator
	logger   *slog.Logger
}

// NewReader builds a reader for one column-mapping configuration.
//
// Configuration errors are caught here rather than at parse time: every
// mapped field must be declared in the schema, headers must be unique, and
// two headers must not map to the same field.
func NewReader(codec Codec, mappings []ColumnMapping, schema Validator, logger *slog.Logger) (*Reader, error) {
	if codec == nil {
		return nil, fmt.Errorf("reader requires a codec")
	}
	if schema == nil {
		return nil, fmt.Errorf("reader requires a schema")
	}
	if len(mappings) == 0 {
		return nil, fmt.Errorf("reader requires at least one column mapping")
	}
	if logger == nil {
		logger = slog.Default()
	}

	seenHeader := make(map[string]string, len(mappings))
	seenField := make(map[string]string, len(mappings))
	for _, m := range mappings {
		if m.Header == "" || m.Field == "" {
			return nil, fmt.Errorf("column mapping %q -> %q is incomplete", m.Header, m.Field)
		}
		if prev, dup := seenHeader[m.Header]; dup {
			return nil, fmt.Errorf("column %q is mapped twice (to %q and %q)", m.Header, prev, m.Field)
		}
		if prev, dup := seenField[m.Field]; dup {
			return nil, fmt.Errorf("columns %q and %q both map to field %q", prev, m.Header, m.Field)
		}
		if _, known := schema.Spec(m.Field); !known {
			return nil, fmt.Errorf("column %q maps to field %q, which the schema does not declare", m.Header, m.Field)
		}
		seenHeader[m.Header] = m.Field
		seenField[m.Field] = m.Header
	}

	return &Reader{
		codec:    codec,
		mappings: mappings,
		schema:   schema,
		logger:   logger,
	}, nil
}

// Parse decodes the payload and returns one validated record per data row.
//
// It fails with ErrEmptyPayload when no data rows decode, with
// *MissingHeadersError when a required column is absent, and with
// *RowValidationError for the first row the schema rejects. Row numbers in
// errors are 1-based and offset by the header row, matching the row numbers
// a spreadsheet application displays.
func (r *Reader) Parse(data []byte) ([]*Record, error) {
	rows, err := r.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode spreadsheet: %w", err)
	}

	var first *Record
	for _, raw := range rows {
		if raw != nil {
			first = raw
			break
		}
	}
	if first == nil {
		return nil, ErrEmptyPayload
	}

	if err := r.checkHeaders(first); err != nil {
		return nil, err
	}

	out := make([]*Record, 0, len(rows))
	for i, raw := range rows {
		if raw == nil {
			// Blank sheet row: nothing to map, but it still occupies a
			// visible row number.
			continue
		}
		rowNum := i + 2 // 1-based, after the header row

		rec := r.mapRow(raw, rowNum)
		if fieldErrs := r.schema.Validate(rec); len(fieldErrs) > 0 {
			return nil, &RowValidationError{Row: rowNum, Fields: fieldErrs}
		}
		out = append(out, rec)
	}

	return out, nil
}

// checkHeaders verifies that every non-optional mapped column appears in the
// first non-blank decoded row. All missing columns are reported at once, in
// mapping declaration order.
func (r *Reader) checkHeaders(first *Record) error {
	var missing []string
	for _, m := range r.mappings {
		spec, _ := r.schema.Spec(m.Field)
		if spec.Optional {
			continue
		}
		if !first.Has(m.Header) {
			missing = append(missing, m.Header)
		}
	}
	if len(missing) > 0 {
		return &MissingHeadersError{Missing: missing}
	}
	return nil
}

// mapRow builds one internal record from a raw decoded row, applying the
// per-field transform when declared and kind coercion otherwise.
func (r *Reader) mapRow(raw *Record, rowNum int) *Record {
	rec := NewRecord()
	for _, m := range r.mappings {
		spec, _ := r.schema.Spec(m.Field)
		value, _ := raw.Get(m.Header) // absent column reads as nil

		if spec.Transform != nil {
			transformed, err := spec.Transform(value)
			if err != nil {
				// Best-effort stage: keep the raw value and let schema
				// validation produce the final verdict.
				r.logger.Warn("field transform failed, keeping raw value",
					"field", m.Field,
					"row", rowNum,
					"error", err,
				)
				rec.Set(m.Field, value)
				continue
			}
			rec.Set(m.Field, transformed)
			continue
		}

		rec.Set(m.Field, Coerce(value, spec))
	}
	return rec
}
