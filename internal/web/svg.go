package web

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/kazz187/smartplanner/internal/task"
	"github.com/kazz187/smartplanner/internal/timeline"
)

const (
	svgWidth      = 960
	svgLabelWidth = 120
	svgMargin     = 20
	svgAxisHeight = 30
	svgBarPadding = 6
)

// RenderSVG draws the table as a static Gantt chart. It is served on its own
// and embedded in the plan page for clients without JavaScript. Bar tooltips
// include the description found under the row's task id, if any.
func RenderSVG(table timeline.Table, now time.Time, descriptions map[string]string) string {
	n := len(table.Rows)
	height := timeline.ChartHeight(n)

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" font-family="sans-serif" font-size="12">`,
		svgWidth, height, svgWidth, height))
	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="#ffffff"/>`, svgWidth, height))

	if n == 0 {
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" text-anchor="middle" fill="#6b7280">No tasks to display in the timeline.</text>`,
			svgWidth/2, height/2))
		svg.WriteString("</svg>")
		return svg.String()
	}

	from, to := span(table.Rows)
	chartLeft := svgLabelWidth
	chartRight := svgWidth - svgMargin
	x := func(t time.Time) float64 {
		return float64(chartLeft) + float64(t.Sub(from))/float64(to.Sub(from))*float64(chartRight-chartLeft)
	}

	// axis
	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#d1d5db"/>`,
		chartLeft, svgAxisHeight, chartRight, svgAxisHeight))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#374151">%s</text>`,
		chartLeft, svgAxisHeight-10, from.Format("2006-01-02")))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" text-anchor="end" fill="#374151">%s</text>`,
		chartRight, svgAxisHeight-10, to.Format("2006-01-02")))

	for i, r := range table.Rows {
		y := svgAxisHeight + i*timeline.TrackHeight
		if i%2 == 1 {
			svg.WriteString(fmt.Sprintf(`<rect x="0" y="%d" width="%d" height="%d" fill="#f9fafb"/>`,
				y, svgWidth, timeline.TrackHeight))
		}
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#1f2937">%s</text>`,
			svgMargin/2, y+timeline.TrackHeight/2+4, html.EscapeString(r.TaskLabel)))

		x0, x1 := x(r.Start), x(r.End)
		barW := max(x1-x0, 1)
		barH := timeline.TrackHeight - 2*svgBarPadding
		svg.WriteString(fmt.Sprintf(`<g><title>%s</title>`, html.EscapeString(rowTitle(r, descriptions[r.TaskID]))))
		svg.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%d" width="%.1f" height="%d" rx="3" fill="#93c5fd"/>`,
			x0, y+svgBarPadding, barW, barH))
		if r.PercentComplete > 0 {
			svg.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%d" width="%.1f" height="%d" rx="3" fill="#2563eb"/>`,
				x0, y+svgBarPadding, barW*float64(r.PercentComplete)/100, barH))
		}
		svg.WriteString("</g>")
	}

	if !now.Before(from) && !now.After(to) {
		nx := x(now)
		svg.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#ef4444" stroke-dasharray="4 2"/>`,
			nx, svgAxisHeight, nx, height))
	}

	svg.WriteString("</svg>")
	return svg.String()
}

// span returns the earliest start and latest end, at least one day apart.
func span(rows []timeline.Row) (time.Time, time.Time) {
	from, to := rows[0].Start, rows[0].End
	for _, r := range rows[1:] {
		if r.Start.Before(from) {
			from = r.Start
		}
		if r.End.After(to) {
			to = r.End
		}
	}
	if to.Sub(from) < 24*time.Hour {
		to = from.Add(24 * time.Hour)
	}
	return from, to
}

func rowTitle(r timeline.Row, description string) string {
	name := r.TaskID
	if description != "" {
		name += " " + description
	}
	title := fmt.Sprintf("%s: %s - %s (%d%%)", name, r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), r.PercentComplete)
	if r.Dependencies != nil {
		title += " after " + *r.Dependencies
	}
	return title
}

// Descriptions maps task ids to descriptions for RenderSVG.
func Descriptions(tasks []task.Task) map[string]string {
	m := make(map[string]string, len(tasks))
	for _, t := range tasks {
		if t.Description != "" {
			m[t.ID] = t.Description
		}
	}
	return m
}
