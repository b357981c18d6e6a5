// Package sheet reads spreadsheets into header-keyed rows and writes tabular exports,
// in CSV and XLSX.
package sheet

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is a spreadsheet encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = eris.New("sheet: unsupported format")

// FormatOf picks the format from a file name or a bare format name.
func FormatOf(name string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		ext = strings.ToLower(strings.TrimSpace(name))
	}
	switch ext {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	}
	return "", eris.Wrapf(ErrUnsupportedFormat, "%q", name)
}

// Row is one data row keyed by the header of its column.
type Row struct {
	// Line is the 1-based record number in the source, header included.
	Line   int
	Values map[string]string
}

// Get returns the trimmed value of column, or "".
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// Read parses the first sheet of r. The first non-empty row is the header.
func Read(ctx context.Context, r io.Reader, f Format) ([]Row, error) {
	switch f {
	case FormatCSV:
		return ReadCSV(ctx, r)
	case FormatXLSX:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "sheet: read xlsx")
		}
		return ReadXLSX(ctx, data, XLSXOptions{})
	}
	return nil, eris.Wrapf(ErrUnsupportedFormat, "%q", f)
}

// Write encodes header and rows in format f.
func Write(w io.Writer, f Format, header []string, rows [][]string) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, header, rows)
	case FormatXLSX:
		return WriteXLSX(w, "Reports", header, rows)
	}
	return eris.Wrapf(ErrUnsupportedFormat, "%q", f)
}

// keyer turns raw records into Rows once the header is known.
type keyer struct {
	header []string
}

// next returns the Row for cells, or false while the header is still being looked for
// or when cells is blank.
func (k *keyer) next(cells []string, line int) (Row, bool) {
	if blank(cells) {
		return Row{}, false
	}
	if k.header == nil {
		k.header = make([]string, len(cells))
		for i, c := range cells {
			k.header[i] = strings.TrimSpace(c)
		}
		if len(k.header) > 0 {
			k.header[0] = strings.TrimPrefix(k.header[0], "\ufeff")
		}
		return Row{}, false
	}

	values := make(map[string]string, len(k.header))
	for i, name := range k.header {
		if name == "" || i >= len(cells) {
			continue
		}
		if _, dup := values[name]; dup {
			continue
		}
		values[name] = cells[i]
	}
	return Row{Line: line, Values: values}, true
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
