// Copyright 2024 pmatkit. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pmat

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// ReportRow is one line of a size report: a type name (plain, like
// "ARRAY", or blessed, like "ARRAY(Foo::Bar)"), an object count and a
// total byte size.
type ReportRow struct {
	Type  string
	Count uint64
	Bytes uint64
}

// Report is the read-only summary built from an ObjectTable's Stats: a
// unified, descending-by-size list of rows with a trailing "Total" row.
// Building a Report never mutates the table.
type Report struct {
	Rows  []ReportRow
	Total ReportRow
}

// BuildReport merges plain and blessed statistics into one row set,
// sorted descending by total byte size, and appends the grand total.
func BuildReport(stats Stats) Report {
	var rows []ReportRow
	var total ReportRow
	total.Type = "Total"

	for t, count := range stats.CountByType {
		row := ReportRow{Type: t.String(), Count: count, Bytes: stats.SizeByType[t]}
		rows = append(rows, row)
		total.Count += row.Count
		total.Bytes += row.Bytes
	}
	for key, count := range stats.CountByBlessedType {
		row := ReportRow{Type: fmt.Sprintf("%s(%s)", key.Type, key.Name), Count: count, Bytes: stats.SizeByBlessedType[key]}
		rows = append(rows, row)
		total.Count += row.Count
		total.Bytes += row.Bytes
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Bytes != rows[j].Bytes {
			return rows[i].Bytes > rows[j].Bytes
		}
		return rows[i].Type < rows[j].Type
	})

	return Report{Rows: rows, Total: total}
}

// Text renders the report as a plain three-column table (Type | SVs |
// Bytes), with column widths computed as the max of header and data
// widths, matching a bare non-TTY sink.
func (r Report) Text() string {
	headers := [3]string{"Type", "SVs", "Bytes"}
	widths := [3]int{len(headers[0]), len(headers[1]), len(headers[2])}

	cells := make([][3]string, 0, len(r.Rows)+1)
	for _, row := range r.Rows {
		c := [3]string{row.Type, strconv.FormatUint(row.Count, 10), strconv.FormatUint(row.Bytes, 10)}
		cells = append(cells, c)
	}
	cells = append(cells, [3]string{r.Total.Type, strconv.FormatUint(r.Total.Count, 10), strconv.FormatUint(r.Total.Bytes, 10)})

	for _, c := range cells {
		for i := 0; i < 3; i++ {
			if len(c[i]) > widths[i] {
				widths[i] = len(c[i])
			}
		}
	}

	out := fmt.Sprintf("%-*s  %*s  %*s\n", widths[0], headers[0], widths[1], headers[1], widths[2], headers[2])
	for _, c := range cells {
		out += fmt.Sprintf("%-*s  %*s  %*s\n", widths[0], c[0], widths[1], c[1], widths[2], c[2])
	}
	return out
}

var (
	reportHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4682B4"))
	reportTotalStyle  = lipgloss.NewStyle().Bold(true)
	reportCellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
)

// Styled renders the report with lipgloss styling, for TTY sinks.
func (r Report) Styled() string {
	headers := [3]string{"Type", "SVs", "Bytes"}
	widths := [3]int{len(headers[0]), len(headers[1]), len(headers[2])}

	cells := make([][3]string, 0, len(r.Rows)+1)
	for _, row := range r.Rows {
		cells = append(cells, [3]string{row.Type, strconv.FormatUint(row.Count, 10), strconv.FormatUint(row.Bytes, 10)})
	}
	cells = append(cells, [3]string{r.Total.Type, strconv.FormatUint(r.Total.Count, 10), strconv.FormatUint(r.Total.Bytes, 10)})

	for _, c := range cells {
		for i := 0; i < 3; i++ {
			if len(c[i]) > widths[i] {
				widths[i] = len(c[i])
			}
		}
	}

	render := func(s string, w int, style lipgloss.Style) string {
		return style.Width(w).Render(s)
	}

	out := lipgloss.JoinHorizontal(lipgloss.Left,
		render(headers[0], widths[0], reportHeaderStyle), "  ",
		render(headers[1], widths[1], reportHeaderStyle), "  ",
		render(headers[2], widths[2], reportHeaderStyle)) + "\n"

	for i, c := range cells {
		style := reportCellStyle
		if i == len(cells)-1 {
			style = reportTotalStyle
		}
		out += lipgloss.JoinHorizontal(lipgloss.Left,
			render(c[0], widths[0], style), "  ",
			render(c[1], widths[1], style), "  ",
			render(c[2], widths[2], style)) + "\n"
	}
	return out
}
