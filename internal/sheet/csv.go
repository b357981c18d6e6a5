package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"io"

	"github.com/rotisserie/eris"
)

// CSVOptions configures StreamCSV.
type CSVOptions struct {
	Delimiter  rune // ',' when zero
	LazyQuotes bool
}

// CSVRecord is one parsed record and the source line it starts on.
type CSVRecord struct {
	Cells []string
	Line  int
}

// StreamCSV parses r on a goroutine. Records arrive on the first channel; a read error or
// cancellation is delivered on the second. Both channels close when parsing stops, and the
// caller must drain the record channel.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan CSVRecord, <-chan error) {
	out := make(chan CSVRecord, 32)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		cr := csv.NewReader(r)
		if opts.Delimiter != 0 {
			cr.Comma = opts.Delimiter
		}
		cr.LazyQuotes = opts.LazyQuotes
		// Spreadsheet exports pad or drop trailing cells.
		cr.FieldsPerRecord = -1

		for {
			if err := ctx.Err(); err != nil {
				errc <- eris.Wrap(err, "csv: cancelled")
				return
			}
			cells, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errc <- eris.Wrap(err, "csv: parse")
				return
			}
			line, _ := cr.FieldPos(0)

			select {
			case out <- CSVRecord{Cells: cells, Line: line}:
			case <-ctx.Done():
				errc <- eris.Wrap(ctx.Err(), "csv: cancelled")
				return
			}
		}
	}()

	return out, errc
}

// ReadCSV reads all rows of a CSV document keyed by its header row.
func ReadCSV(ctx context.Context, r io.Reader) ([]Row, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	records, errc := StreamCSV(ctx, r, CSVOptions{LazyQuotes: true})
	var (
		k    keyer
		rows []Row
	)
	for rec := range records {
		if row, ok := k.next(rec.Cells, rec.Line); ok {
			rows = append(rows, row)
		}
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	return rows, nil
}

// WriteCSV writes header followed by rows.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	if err := cw.WriteAll(rows); err != nil {
		return eris.Wrap(err, "csv: write rows")
	}
	return nil
}
