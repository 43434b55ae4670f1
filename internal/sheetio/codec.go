// Package sheetio implements the spreadsheet codec on top of excelize.
// It is the only package that touches the XLSX container format; the
// pipeline in internal/tabular depends on the tabular.Codec interface alone.
package sheetio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sheetbridge/sheetbridge/internal/tabular"
)

// ErrNoSheets indicates a workbook that decodes cleanly but contains no
// worksheets.
var ErrNoSheets = errors.New("workbook contains no sheets")

// Codec encodes and decodes single-sheet XLSX workbooks. Stateless and safe
// for concurrent use.
type Codec struct{}

// New returns an XLSX codec.
func New() *Codec {
	return &Codec{}
}

// Decode reads the first sheet of the workbook and returns its data rows
// keyed by the literal header-row labels, in header order. Cells are the
// formatted string values excelize produces; type coercion is the
// pipeline's job, not the codec's. A fully empty row decodes as a nil
// placeholder so each record's slice index still matches its sheet row;
// error messages that name a row stay in step with what the spreadsheet
// application displays. A workbook with a header row but no data rows
// decodes to zero records.
func (c *Codec) Decode(data []byte) ([]*tabular.Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, nil // header only, or nothing at all
	}

	headers := rows[0]
	out := make([]*tabular.Record, 0, len(rows)-1)

	for _, row := range rows[1:] {
		rec := tabular.NewRecord()
		empty := true
		for i, header := range headers {
			if header == "" {
				continue
			}
			var value any
			if i < len(row) && row[i] != "" {
				value = row[i]
				empty = false
			}
			rec.Set(header, value)
		}
		if empty {
			out = append(out, nil)
			continue
		}
		out = append(out, rec)
	}

	return out, nil
}

// Encode builds a single-sheet workbook: the header line in row 1 and one
// row per record below it.
func (c *Codec) Encode(sheetName string, headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = tabular.DefaultSheetName
	}
	if sheetName != tabular.DefaultSheetName {
		if err := f.SetSheetName(tabular.DefaultSheetName, sheetName); err != nil {
			return nil, fmt.Errorf("name sheet %q: %w", sheetName, err)
		}
	}

	headerCells := make([]any, len(headers))
	for i, h := range headers {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerCells); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
