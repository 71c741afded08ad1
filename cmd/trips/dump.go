package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/davidchoysqldba/trips/internal/storage"
	"github.com/davidchoysqldba/trips/internal/trip"
)

// dumpTable prints every row of the table as tab-aligned columns, header
// first. NULL values print as an empty cell.
func dumpTable(ctx context.Context, repo storage.Repository, w io.Writer) error {
	sc, ok := repo.(storage.Scanner)
	if !ok {
		return fmt.Errorf("dump: storage backend cannot read rows back")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(trip.ColumnNames(), "\t"))

	cells := make([]string, len(trip.Columns))
	err := sc.ScanAll(ctx, func(row []any) error {
		for i := range cells {
			cells[i] = ""
			if i < len(row) && row[i] != nil {
				cells[i] = fmt.Sprint(row[i])
			}
		}
		_, err := fmt.Fprintln(tw, strings.Join(cells, "\t"))
		return err
	})
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	return tw.Flush()
}
