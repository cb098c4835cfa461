package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/logfields"
	"git.home.luguber.info/inful/releaser/internal/metrics"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Every time.Duration `name:"every" default:"1h" help:"Interval between release runs"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	if w.Every <= 0 {
		return fmt.Errorf("--every must be positive, got %s", w.Every)
	}
	if _, err := loadConfig(g, root); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := NewWatcher(ctx, w.Every, func(ctx context.Context) { watchOnce(ctx, g, root) })
	if err != nil {
		return err
	}
	s.Start()
	slog.Info("Watching for releases", slog.Duration("every", w.Every))

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping watcher")
	return s.Shutdown()
}

// NewWatcher schedules task every interval, starting immediately. Runs
// never overlap: a run still in progress when the next is due delays it.
func NewWatcher(ctx context.Context, every time.Duration, task func(context.Context)) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { task(ctx) }),
		gocron.WithName("release-run"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create release job: %w", err)
	}
	return s, nil
}

// watchOnce reloads the configuration and runs one release. Failures are
// logged; the watcher keeps going.
func watchOnce(ctx context.Context, g *Global, root *CLI) {
	cfg, err := loadConfig(g, root)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		return
	}
	reg := prometheus.NewRegistry()
	res, err := RunRelease(ctx, cfg, RunOptions{Recorder: metrics.NewPrometheusRecorder(reg), Logger: g.Logger})
	if mErr := metrics.WriteTextfile(cfg.Resolve(cfg.Metrics.Textfile), reg); mErr != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Error(mErr))
	}
	switch {
	case err == nil:
		printResult(g, res)
	case ferrors.HasKind(err, ferrors.KindNoChange):
		slog.Info("No release needed")
	default:
		slog.Error("Release run failed", logfields.Kind(string(ferrors.KindOf(err))), logfields.Error(err))
	}
}
