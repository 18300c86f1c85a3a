package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/iudanet/editgrid/internal/models"
)

const (
	minCellWidth = 3
	cellPadding  = 2
)

// renderTable печатает строки таблицы, ужимая ячейки до ширины терминала.
func renderTable(w io.Writer, snap models.Snapshot, width int) error {
	if len(snap.Headers) == 0 {
		_, err := fmt.Fprintln(w, "(no columns)")
		return err
	}

	numWidth := len(strconv.Itoa(len(snap.Rows))) + cellPadding
	cellWidth := (width-numWidth)/len(snap.Headers) - cellPadding
	if cellWidth < minCellWidth {
		cellWidth = minCellWidth
	}

	tw := tabwriter.NewWriter(w, 0, 0, cellPadding, ' ', 0)

	cells := make([]string, 0, len(snap.Headers)+1)
	cells = append(cells, "#")
	for _, h := range snap.Headers {
		cells = append(cells, truncate(h, cellWidth))
	}
	fmt.Fprintln(tw, strings.Join(cells, "\t"))

	for i, row := range snap.Rows {
		cells = cells[:0]
		cells = append(cells, strconv.Itoa(i+1))
		for _, h := range snap.Headers {
			cells = append(cells, truncate(row.Get(h), cellWidth))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, err := fmt.Fprintf(w, "%d row(s), %d column(s)\n", len(snap.Rows), len(snap.Headers))
	return err
}

// truncate обрезает значение до limit символов; табуляции и переводы строк
// заменяются пробелами, чтобы не ломать выравнивание.
func truncate(value string, limit int) string {
	value = strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return ' '
		}
		return r
	}, value)

	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit-1]) + "…"
}
