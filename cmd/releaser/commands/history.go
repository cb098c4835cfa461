package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"git.home.luguber.info/inful/releaser/internal/release"
	"git.home.luguber.info/inful/releaser/internal/store"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Package string `short:"p" help:"Only list this package (defaults to every package)"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	registry, err := store.Open(cfg.Resolve(cfg.Store.Path))
	if err != nil {
		return err
	}
	defer func() { _ = registry.Close() }()

	records, err := registry.List(context.Background(), h.Package)
	if err != nil {
		return err
	}
	return RenderHistory(output(g), records)
}

// RenderHistory writes records as a table, newest first as given.
func RenderHistory(w io.Writer, records []release.Record) error {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "(no releases)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Package", "Version", "Commit", "Published"})
	for _, r := range records {
		t.AppendRow(table.Row{r.Name, r.Version, shortCommit(r.BoundCommit), r.PublishedAt.Local().Format("2006-01-02 15:04:05")})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d releases)\n", len(records))
	return nil
}
