package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/releaser/internal/config"
	"git.home.luguber.info/inful/releaser/internal/eventstore"
	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/git"
	"git.home.luguber.info/inful/releaser/internal/logfields"
	"git.home.luguber.info/inful/releaser/internal/manifest"
	"git.home.luguber.info/inful/releaser/internal/metrics"
	"git.home.luguber.info/inful/releaser/internal/notify"
	"git.home.luguber.info/inful/releaser/internal/pipeline"
	"git.home.luguber.info/inful/releaser/internal/plugin"
	_ "git.home.luguber.info/inful/releaser/internal/plugins" // built-in plugins
	"git.home.luguber.info/inful/releaser/internal/retry"
	"git.home.luguber.info/inful/releaser/internal/store"
	"git.home.luguber.info/inful/releaser/internal/verify"
	"git.home.luguber.info/inful/releaser/internal/versioning"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	DryRun        bool   `name:"dry-run" help:"Compute the next version and notes without publishing"`
	AllowNoChange bool   `name:"allow-no-change" help:"Exit 0 when no commit warrants a release"`
	Branch        string `help:"Branch to release from when HEAD is detached (defaults to the checked out branch)"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	res, err := RunRelease(ctx, cfg, RunOptions{
		DryRun:   r.DryRun,
		Branch:   r.Branch,
		Recorder: metrics.NewPrometheusRecorder(reg),
		Logger:   g.Logger,
	})
	if mErr := metrics.WriteTextfile(cfg.Resolve(cfg.Metrics.Textfile), reg); mErr != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Error(mErr))
	}
	if err != nil {
		return err
	}
	printResult(g, res)
	return nil
}

// RunOptions are per-invocation overrides of a release run.
type RunOptions struct {
	DryRun bool
	// Branch overrides the checked out branch.
	Branch   string
	Recorder metrics.Recorder
	Logger   *slog.Logger
	// Plugins defaults to plugin.DefaultRegistry().
	Plugins *plugin.Registry
}

// RunRelease performs one release attempt for cfg: it reads the last
// published record, collects the commits since its bound commit and runs
// the pipeline.
func RunRelease(ctx context.Context, cfg *config.Config, opts RunOptions) (*pipeline.Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	plugins := opts.Plugins
	if plugins == nil {
		plugins = plugin.DefaultRegistry()
	}

	repoDir := cfg.RepositoryPath()
	history, err := git.Open(repoDir)
	if err != nil {
		return nil, err
	}

	branch := opts.Branch
	if branch == "" {
		if current, err := history.CurrentBranch(); err == nil {
			branch = current
		} else {
			logger.Warn("Cannot determine the current branch", logfields.Error(err))
		}
	}
	if branch != "" && cfg.Branch != "" && branch != cfg.Branch {
		return nil, ferrors.NewError(ferrors.KindVerifyConditions,
			fmt.Sprintf("branch %q is not the release branch %q", branch, cfg.Branch)).
			WithContext("branch", branch).
			UserAction().
			Build()
	}

	docs, err := manifest.Open(repoDir, cfg.Documents)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.KindPluginConfig, "cannot open version documents").UserAction().Build()
	}
	name, err := packageName(cfg, docs)
	if err != nil {
		return nil, err
	}

	instances := make(map[plugin.Stage][]plugin.Instance, len(plugin.Stages))
	for _, stage := range plugin.Stages {
		resolved, err := plugins.Resolve(stage, cfg.Plugins.ForStage(stage))
		if err != nil {
			return nil, err
		}
		instances[stage] = resolved
	}

	registry, err := store.Open(cfg.Resolve(cfg.Store.Path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = registry.Close() }()

	in := pipeline.Input{
		PackageName:  name,
		Branch:       branch,
		DryRun:       cfg.DryRun || opts.DryRun,
		PluginConfig: cfg.Plugins.Snapshot(),
	}
	last, err := registry.Read(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		logger.Info("No previous release found", logfields.Package(name))
	case err != nil:
		return nil, err
	default:
		in.LastVersion, in.LastCommit = last.Version, last.BoundCommit
	}
	if in.Commits, err = history.CommitsSince(in.LastCommit); err != nil {
		return nil, err
	}

	pc := &plugin.PluginContext{
		Store:      registry,
		Repository: history,
		WorkDir:    repoDir,
		TagFormat:  cfg.TagFormat,
		Managed:    managedPaths(cfg, docs),
		Logger:     logger,
	}
	if cfg.NATS.URL != "" && !in.DryRun {
		bus, err := notify.NewClient(ctx, &cfg.NATS)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.KindVerifyConditions, "cannot connect to the message bus").
				WithContext("url", cfg.NATS.URL).
				Retryable().
				Build()
		}
		defer func() { _ = bus.Close() }()
		pc.Bus = bus
	}

	policy := retry.NewPolicy(cfg.Verify.BackoffMode(), cfg.Verify.Initial, cfg.Verify.Max, cfg.Verify.MaxRetries)
	options := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithCalculator(versioning.NewCalculator(cfg.InitialVersion)),
		pipeline.WithTagFormat(cfg.TagFormat),
		pipeline.WithDocuments(docs...),
		pipeline.WithPluginContext(pc),
		pipeline.WithVerifier(verify.New(registry, policy,
			verify.WithLogger(logger),
			verify.WithAttemptReport(rec.ObserveVerifyAttempts))),
		pipeline.WithObserver(pipeline.NewMetricsObserver(rec)),
	}
	for _, stage := range plugin.Stages {
		options = append(options, pipeline.WithPlugins(stage, instances[stage]))
	}

	if cfg.Events.Path != "" {
		events, err := eventstore.NewSQLiteStore(cfg.Resolve(cfg.Events.Path))
		if err != nil {
			logger.Warn("Run events disabled", logfields.Error(err))
		} else {
			defer func() { _ = events.Close() }()
			options = append(options, pipeline.WithObserver(pipeline.NewEventObserver(events, logger)))
		}
	}

	return pipeline.New(history, registry, options...).Run(ctx, in)
}

// managedPaths lists the absolute paths of the files a run writes.
func managedPaths(cfg *config.Config, docs []manifest.Document) []string {
	paths := make([]string, 0, len(docs)+2)
	for _, d := range docs {
		paths = append(paths, d.Path())
	}
	for _, p := range []string{cfg.Store.Path, cfg.Events.Path} {
		if p == "" || p == ":memory:" {
			continue
		}
		paths = append(paths, cfg.Resolve(p))
	}
	for i, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			paths[i] = abs
		}
	}
	return paths
}

// packageName returns the configured package name, falling back to the
// "name" field of the first JSON document.
func packageName(cfg *config.Config, docs []manifest.Document) (string, error) {
	if cfg.Package != "" {
		return cfg.Package, nil
	}
	for _, d := range docs {
		jd, ok := d.(*manifest.JSONDocument)
		if !ok {
			continue
		}
		name, err := jd.Name()
		if err != nil {
			return "", ferrors.WrapError(err, ferrors.KindPluginConfig, "cannot read package name").
				WithContext("path", jd.Path()).
				Build()
		}
		if name != "" {
			return name, nil
		}
	}
	return "", ferrors.NewError(ferrors.KindPluginConfig, "package name is not configured and no document provides one").
		WithContext("field", "package").
		UserAction().
		Build()
}

func printResult(g *Global, res *pipeline.Result) {
	w := output(g)
	rc := res.Context
	switch {
	case res.DryRun:
		_, _ = fmt.Fprintf(w, "Dry run: %s would be released as %s (%s)\n", rc.PackageName, rc.NextVersion, rc.TagName)
		if rc.Notes != "" {
			_, _ = fmt.Fprintf(w, "\n%s\n", rc.Notes)
		}
	default:
		_, _ = fmt.Fprintf(w, "Released %s %s (%s) at %s\n", rc.PackageName, rc.NextVersion, rc.TagName, shortCommit(rc.Head))
	}
	for _, warning := range res.Warnings {
		_, _ = fmt.Fprintf(w, "warning: %s\n", warning.Error())
	}
}

func shortCommit(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
