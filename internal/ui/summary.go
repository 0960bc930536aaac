package ui

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// SummaryRow is one metric/value line of a summary table.
type SummaryRow struct {
	Label string
	Value string
}

// RenderSummary writes a two column table with a title, wrapping long
// values such as tokens.
func RenderSummary(w io.Writer, title string, rows []SummaryRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Label, r.Value})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: text.Colors{text.Bold}},
		{Number: 2, WidthMax: 72, WidthMaxEnforcer: text.WrapHard},
	})
	t.Render()
}
