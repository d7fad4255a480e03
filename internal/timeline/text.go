package timeline

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const dateLayout = "2006-01-02"

// WriteText prints the table as aligned columns. Absent values print as "-".
func WriteText(w io.Writer, table Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	labels := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		labels[i] = c.Label
	}
	if _, err := fmt.Fprintln(tw, strings.Join(labels, "\t")); err != nil {
		return err
	}
	for _, r := range table.Rows {
		cells := r.Cells()
		out := make([]string, len(cells))
		for i, v := range cells {
			out[i] = formatCell(v)
		}
		if _, err := fmt.Fprintln(tw, strings.Join(out, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Text is WriteText into a string.
func Text(table Table) string {
	var sb strings.Builder
	_ = WriteText(&sb, table)
	return sb.String()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case interface{ Format(string) string }:
		return x.Format(dateLayout)
	case int:
		return fmt.Sprintf("%d%%", x)
	default:
		return fmt.Sprint(x)
	}
}
