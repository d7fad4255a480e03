package web

import (
	"fmt"
	"time"

	"github.com/kazz187/smartplanner/internal/timeline"
)

// DataTable is the JSON literal form accepted by google.visualization.DataTable.
type DataTable struct {
	Cols []DataColumn `json:"cols"`
	Rows []DataRow    `json:"rows"`
}

type DataColumn struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type DataRow struct {
	C []DataCell `json:"c"`
}

type DataCell struct {
	V any `json:"v"`
}

func NewDataTable(table timeline.Table) DataTable {
	dt := DataTable{
		Cols: make([]DataColumn, len(table.Columns)),
		Rows: make([]DataRow, len(table.Rows)),
	}
	for i, c := range table.Columns {
		dt.Cols[i] = DataColumn{ID: c.ID, Label: c.Label, Type: c.Kind.String()}
	}
	for i, r := range table.Rows {
		cells := r.Cells()
		row := DataRow{C: make([]DataCell, len(cells))}
		for j, v := range cells {
			if t, ok := v.(time.Time); ok {
				v = dateLiteral(t)
			}
			row.C[j] = DataCell{V: v}
		}
		dt.Rows[i] = row
	}
	return dt
}

// dateLiteral renders t in the "Date(...)" string form of the DataTable JSON
// format. Months are zero based. The time of day is kept when it is not midnight.
func dateLiteral(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return fmt.Sprintf("Date(%d,%d,%d)", t.Year(), int(t.Month())-1, t.Day())
	}
	return fmt.Sprintf("Date(%d,%d,%d,%d,%d,%d,%d)",
		t.Year(), int(t.Month())-1, t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(time.Millisecond))
}
