package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DefaultSheet names the worksheet of an XLSX export.
const DefaultSheet = "results"

// ParseFormat validates a format name; the empty string means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", errors.New(errors.ErrCodeValidation, "unsupported export format").WithDetail(s)
}

// Cell renders one value as CSV text.  Nil is the empty string and floats
// use the shortest exact representation.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// WriteCSV writes the header and every row of t.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "write CSV header")
	}
	record := make([]string, len(t.Headers))
	for i, row := range t.Rows {
		for j := range record {
			record[j] = ""
			if j < len(row) {
				record[j] = Cell(row[j])
			}
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, errors.ErrCodeSerialization, "write CSV row %d", i+1)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "flush CSV")
	}
	return nil
}

// WriteXLSX writes t to a single-sheet workbook.  Null cells stay blank and
// numbers are stored as numbers.
func WriteXLSX(w io.Writer, t *Table, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "name sheet")
	}
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "write XLSX header")
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "address XLSX row")
		}
		values := make([]interface{}, len(row))
		copy(values, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, errors.ErrCodeSerialization, "write XLSX row %d", i+1)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "write XLSX workbook")
	}
	return nil
}

// Write encodes t in format.
func Write(w io.Writer, t *Table, format Format) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, t, DefaultSheet)
	case FormatCSV, "":
		return WriteCSV(w, t)
	}
	return errors.New(errors.ErrCodeValidation, "unsupported export format").WithDetail(string(format))
}

// ExportFile lays results out and writes them to path, creating parent
// directories.  The format follows the file extension.
func ExportFile(path string, layout Layout, results []*legislation.Result) error {
	format, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "create report directory")
	}
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "create report file")
	}
	if err := Write(out, BuildTable(layout, results), format); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "close report file")
	}
	return nil
}

//Personal.AI order the ending
