package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Klebert-Engineering/simfil/pkg/types"
)

// renderResults prints result values as a table with one row per
// sequence element. A limit of 0 renders everything.
func renderResults(w io.Writer, values []types.Value, limit int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Type", "Value"})

	shown := len(values)
	if limit > 0 && shown > limit {
		shown = limit
	}
	for i := 0; i < shown; i++ {
		v := values[i]
		t.AppendRow(table.Row{i, v.TypeName(), v.Repr()})
	}
	if shown < len(values) {
		t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d more", len(values)-shown)})
	}
	t.Render()
}
