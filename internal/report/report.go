// Package report renders scoring reports for terminals and spreadsheet export.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"oc-checklist-service/internal/domain"
)

// Header is the column order shared by the table and CSV outputs.
var Header = []string{"title", "rate", "yes", "no", "na", "earned", "missed", "percent", "rank"}

func fields(r domain.CategoryResult) []string {
	return []string{
		r.Title,
		formatNumber(r.Rate),
		strconv.Itoa(r.Yes),
		strconv.Itoa(r.No),
		strconv.Itoa(r.NA),
		formatNumber(r.Earned),
		formatNumber(r.Missed),
		strconv.FormatFloat(r.Percent, 'f', 2, 64),
		string(r.Rank),
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteTable writes an aligned table with one row per category and the total last.
func WriteTable(w io.Writer, rep domain.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow := func(cols []string) {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}
	writeRow(Header)
	for _, row := range rep.Rows {
		writeRow(fields(row))
	}
	writeRow(fields(rep.Total))
	return tw.Flush()
}

// WriteCSV writes the report as CSV with a header line.
func WriteCSV(w io.Writer, rep domain.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, row := range rep.Rows {
		if err := cw.Write(fields(row)); err != nil {
			return err
		}
	}
	if err := cw.Write(fields(rep.Total)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
