package stats

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderLargestUnitsTable renders the n-largest-units ranking as a table,
// styled the way the teacher's report formatter styles its collections.
func RenderLargestUnitsTable(units []LargestUnit) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	tbl.AppendHeader(table.Row{"Object File", "Functions"})

	for _, u := range units {
		tbl.AppendRow(table.Row{u.ObjectFile, u.Functions})
	}

	tbl.AppendFooter(table.Row{"Total", fmt.Sprintf("%d units", len(units))})

	return tbl.Render()
}

// RenderUnanalysedFilesTable renders the files-that-could-not-be-analysed
// listing as a table.
func RenderUnanalysedFilesTable(files []UnanalysedFile) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	tbl.AppendHeader(table.Row{"Object File", "Planned Functions"})

	for _, f := range files {
		tbl.AppendRow(table.Row{f.ObjectFile, f.Functions})
	}

	tbl.AppendFooter(table.Row{"Total", fmt.Sprintf("%d files", len(files))})

	return tbl.Render()
}
