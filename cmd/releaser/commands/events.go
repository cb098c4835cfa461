package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"git.home.luguber.info/inful/releaser/internal/eventstore"
)

// EventsCmd implements the 'events' command.
type EventsCmd struct {
	RunID string `name:"run" help:"Show the events of one run"`
	Limit int    `name:"limit" default:"20" help:"Number of recent runs to summarize"`
}

func (e *EventsCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if cfg.Events.Path == "" {
		return fmt.Errorf("run events are disabled (events.path is empty)")
	}
	events, err := eventstore.NewSQLiteStore(cfg.Resolve(cfg.Events.Path))
	if err != nil {
		return err
	}
	defer func() { _ = events.Close() }()

	ctx := context.Background()
	if e.RunID != "" {
		evs, err := events.GetByRunID(ctx, e.RunID)
		if err != nil {
			return err
		}
		return RenderRunEvents(output(g), evs)
	}

	projection := eventstore.NewRunHistoryProjection(events, e.Limit)
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}
	return RenderRuns(output(g), projection.History())
}

// RenderRunEvents writes the events of one run in order.
func RenderRunEvents(w io.Writer, evs []eventstore.Event) error {
	if len(evs) == 0 {
		_, _ = fmt.Fprintln(w, "(no events)")
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Time", "Type", "Payload"})
	for _, ev := range evs {
		t.AppendRow(table.Row{ev.ID(), ev.Timestamp().Local().Format(time.TimeOnly), ev.Type(), string(ev.Payload())})
	}
	t.Render()
	return nil
}

// RenderRuns writes one row per run summary.
func RenderRuns(w io.Writer, runs []*eventstore.RunSummary) error {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "(no runs)")
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Package", "Started", "Status", "Kind", "Version", "Failed Stage", "Duration"})
	for _, r := range runs {
		status := r.Status
		if r.DryRun {
			status += " (dry run)"
		}
		t.AppendRow(table.Row{
			r.RunID,
			r.Package,
			r.StartedAt.Local().Format(time.DateTime),
			status,
			r.Kind,
			r.Version,
			r.FailedStage,
			r.Duration().Round(time.Millisecond),
		})
	}
	t.Render()
	return nil
}
