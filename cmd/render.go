package cmd

import (
	"io"
	"os"

	"hourtrim/model"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

func renderTable(headers []string, rows [][]string, colorize bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if colorize {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleRounded)
	}

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		configs = append(configs, table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// renderTree draws the city/station/recording/date hierarchy. withPaths
// appends the relative path to each date leaf.
func renderTree(cities []model.City, withPaths bool) string {
	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedRounded)
	for _, city := range cities {
		lw.AppendItem(city.Name)
		lw.Indent()
		for _, station := range city.Stations {
			lw.AppendItem(station.Name)
			lw.Indent()
			for _, rec := range station.Recordings {
				lw.AppendItem(rec.Name)
				lw.Indent()
				for _, date := range rec.Dates {
					if withPaths {
						lw.AppendItem(date.Name + "  (" + date.Path + ")")
					} else {
						lw.AppendItem(date.Name)
					}
				}
				lw.UnIndent()
			}
			lw.UnIndent()
		}
		lw.UnIndent()
	}
	return lw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
