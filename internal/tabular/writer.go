package tabular

// writer.go serializes records to a single-sheet XLSX workbook or a
// delimited-text document.
//
// Shaping happens in a fixed order: whole-row transform, column exclusion,
// header renaming, serialization. The transform runs before any filtering so
// it sees each row's original shape. Rows with differing key sets are
// normalized to the union of all keys (first-seen order) rather than
// silently dropping columns that do not match the first row, and a rename
// that would collide two fields onto one output header is rejected instead
// of silently overwriting.

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// DefaultSheetName is the worksheet name used when WriteOptions does not set
// one.
const DefaultSheetName = "Sheet1"

// DefaultDelimiter is the field separator for text output.
const DefaultDelimiter = ","

// RowTransformFunc rewrites a whole record before filtering and renaming.
// Errors are fatal and propagate to the caller unchanged.
type RowTransformFunc func(rec *Record) (*Record, error)

// WriteOptions configures a single write call. The zero value is usable.
type WriteOptions struct {
	// SheetName names the output worksheet (XLSX mode only).
	SheetName string

	// ExcludeColumns lists field names dropped from every record.
	ExcludeColumns []string

	// HeaderMapping renames fields in the output; fields absent from the
	// map keep their name.
	HeaderMapping map[string]string

	// Transform, when set, is applied to every record before exclusion and
	// renaming.
	Transform RowTransformFunc

	// Delimiter separates fields in text mode. Defaults to ",".
	Delimiter string
}

func (o WriteOptions) sheetName() string {
	if o.SheetName == "" {
		return DefaultSheetName
	}
	return o.SheetName
}

func (o WriteOptions) delimiter() string {
	if o.Delimiter == "" {
		return DefaultDelimiter
	}
	return o.Delimiter
}

// Writer serializes record sequences. Safe for concurrent use.
type Writer struct {
	codec Codec
}

// NewWriter returns a writer backed by the given spreadsheet codec. Text
// output does not touch the codec, so a nil codec is acceptable for
// CSV-only use.
func NewWriter(codec Codec) *Writer {
	return &Writer{codec: codec}
}

// WriteXLSX serializes the records to a single-sheet workbook.
func (w *Writer) WriteXLSX(records []*Record, opts WriteOptions) ([]byte, error) {
	if w.codec == nil {
		return nil, fmt.Errorf("writer has no spreadsheet codec")
	}
	headers, rows, err := shape(records, opts)
	if err != nil {
		return nil, err
	}
	return w.codec.Encode(opts.sheetName(), headers, rows)
}

// WriteCSV serializes the records to delimited text. String values are
// always double-quoted with embedded quotes doubled; numbers and booleans
// are written bare. Rows are newline-joined with no trailing newline and no
// byte-order mark. Zero records produce the empty string.
func (w *Writer) WriteCSV(records []*Record, opts WriteOptions) (string, error) {
	headers, rows, err := shape(records, opts)
	if err != nil {
		return "", err
	}
	if len(headers) == 0 {
		return "", nil
	}

	delim := opts.delimiter()
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(headers, delim))

	cells := make([]string, len(headers))
	for _, row := range rows {
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		lines = append(lines, strings.Join(cells, delim))
	}

	return strings.Join(lines, "\n"), nil
}

// Headers returns the output header line the options would produce for the
// given field names, without serializing any data. Used for template
// generation.
func Headers(fields []string, opts WriteOptions) ([]string, error) {
	rec := NewRecord()
	for _, f := range fields {
		rec.Set(f, nil)
	}
	shaped, err := shapeRecord(rec, opts)
	if err != nil {
		return nil, err
	}
	return shaped.Keys(), nil
}

// shape applies transform, exclusion and renaming to every record, then
// normalizes all rows to the union of output headers in first-seen order.
// A nil record in the input is a caller error, not a panic.
func shape(records []*Record, opts WriteOptions) ([]string, [][]any, error) {
	shaped := make([]*Record, len(records))
	var headers []string
	seen := make(map[string]bool)

	for i, rec := range records {
		if rec == nil {
			return nil, nil, fmt.Errorf("record %d is nil", i)
		}
		out, err := shapeRecord(rec, opts)
		if err != nil {
			return nil, nil, err
		}
		shaped[i] = out
		for _, k := range out.Keys() {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}

	rows := make([][]any, len(shaped))
	for i, rec := range shaped {
		row := make([]any, len(headers))
		for j, h := range headers {
			row[j], _ = rec.Get(h)
		}
		rows[i] = row
	}

	return headers, rows, nil
}

// shapeRecord transforms, filters and renames a single record.
func shapeRecord(rec *Record, opts WriteOptions) (*Record, error) {
	if opts.Transform != nil {
		out, err := opts.Transform(rec.Clone())
		if err != nil {
			return nil, err
		}
		rec = out
	}

	excluded := make(map[string]bool, len(opts.ExcludeColumns))
	for _, name := range opts.ExcludeColumns {
		excluded[name] = true
	}

	out := NewRecord()
	renamedFrom := make(map[string]string)
	for _, key := range rec.Keys() {
		if excluded[key] {
			continue
		}
		name := key
		if mapped, ok := opts.HeaderMapping[key]; ok {
			name = mapped
		}
		if prev, collides := renamedFrom[name]; collides {
			return nil, &HeaderCollisionError{Header: name, Fields: []string{prev, key}}
		}
		renamedFrom[name] = key
		value, _ := rec.Get(key)
		out.Set(name, value)
	}

	return out, nil
}

// formatCell renders one CSV cell. Strings are always quoted with internal
// quotes doubled; nil renders empty; everything else is written bare.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return `"` + strings.ReplaceAll(val, `"`, `""`) + `"`
	case time.Time:
		return val.Format("2006-01-02")
	default:
		if s, err := cast.ToStringE(val); err == nil {
			return s
		}
		return fmt.Sprint(val)
	}
}
