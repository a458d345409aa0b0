package commands

import (
	"fmt"
	"os"

	"akleg-data/internal/curated"
	"akleg-data/internal/export"
	"akleg-data/internal/ingest"
	"akleg-data/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	return t
}

func printIngest(results ...ingest.Result) {
	t := newTable()
	t.AppendHeader(table.Row{"Table", "Existing", "New"})
	for _, res := range results {
		t.AppendRow(table.Row{res.Table, res.Existing, res.New})
	}
	t.Render()
}

func printManifest(m export.Manifest) {
	t := newTable()
	t.AppendHeader(table.Row{"Path", "Format", "Rows"})
	for _, a := range m.Artifacts {
		rows := ""
		if a.Table != "" {
			rows = fmt.Sprint(a.Rows)
		}
		t.AppendRow(table.Row{a.Path, a.Format, rows})
	}
	t.Render()
}

func printCounts(counts map[string]int64) {
	t := newTable()
	t.AppendHeader(table.Row{"Table", "Rows"})
	for _, name := range store.TableNames {
		t.AppendRow(table.Row{name, counts[name]})
	}
	t.Render()
}

func printSuggestions(suggestions []curated.Suggestion) {
	t := newTable()
	t.AppendHeader(table.Row{"Legislature", "Code", "Scraped name", "Suggested person", "Similarity"})
	for _, s := range suggestions {
		similarity := ""
		if s.PersonId != "" {
			similarity = fmt.Sprintf("%.2f", s.Correlation)
		}
		t.AppendRow(table.Row{s.LegislatureNumber, s.MemberCode, s.ScrapedName, s.PersonId, similarity})
	}
	t.Render()
}
