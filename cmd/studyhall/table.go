package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. A zero width leaves the cell unwrapped.
type column struct {
	title string
	right bool
	width int
}

// questionWidth wraps card questions and titles.
const questionWidth = 60

func left(title string) column           { return column{title: title} }
func right(title string) column          { return column{title: title, right: true} }
func wrapped(title string, w int) column { return column{title: title, width: w} }

// renderTable draws rows under columns. Short rows are padded; a non-empty
// footer is rendered as a totals line.
func renderTable(columns []column, rows [][]string, footer ...string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(columns, func(i int) string { return columns[i].title }))
	for _, row := range rows {
		tw.AppendRow(toRow(columns, cellAt(row)))
	}
	if len(footer) > 0 {
		tw.AppendFooter(toRow(columns, cellAt(footer)))
	}

	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		align := text.AlignLeft
		if col.right {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
			WidthMax:    col.width,
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func toRow(columns []column, cell func(int) string) table.Row {
	row := make(table.Row, len(columns))
	for i := range columns {
		row[i] = cell(i)
	}
	return row
}

func cellAt(values []string) func(int) string {
	return func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
}
