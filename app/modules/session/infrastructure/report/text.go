package sessionreport

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// RenderText writes s as an aligned plain-text table for terminals.
func RenderText(w io.Writer, s Sheet) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "#\t%s\t\n", strings.Join(s.Players, "\t"))
	for i, row := range s.Rows {
		fmt.Fprintf(tw, "%d\t%s\t\n", i+1, joinCells(row))
	}
	fmt.Fprintf(tw, "Σ\t%s\t\n", joinCells(s.Totals))
	if len(s.Radlci) > 0 {
		fmt.Fprintf(tw, "R\t%s\t\n", strings.Join(s.Radlci, "\t"))
	}
	return tw.Flush()
}

func joinCells(cells []Cell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.Text()
	}
	return strings.Join(parts, "\t")
}
