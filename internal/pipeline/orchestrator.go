package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/releaser/internal/commit"
	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/logfields"
	"git.home.luguber.info/inful/releaser/internal/manifest"
	"git.home.luguber.info/inful/releaser/internal/metrics"
	"git.home.luguber.info/inful/releaser/internal/plugin"
	"git.home.luguber.info/inful/releaser/internal/release"
	"git.home.luguber.info/inful/releaser/internal/retry"
	"git.home.luguber.info/inful/releaser/internal/verify"
	"git.home.luguber.info/inful/releaser/internal/versioning"
)

// NotesSeparator joins the fragments of the generateNotes stage.
const NotesSeparator = "\n\n"

// History is the history collaborator: it reports HEAD and records the
// release marker once a release is verified.
type History interface {
	Head() (string, error)
	SetReleaseMarker(name, commitID string) error
}

// Input is what the caller knows before a run starts.
type Input struct {
	PackageName string
	// LastVersion and LastCommit describe the previous release; both are
	// empty for a first release.
	LastVersion string
	LastCommit  string
	Branch      string
	// Commits are the raw commits since LastCommit, oldest first.
	Commits      []commit.Raw
	PluginConfig map[string]any
	DryRun       bool
}

// Orchestrator owns the release state machine. It is safe to call Run
// repeatedly; runs of the same package must be serialized by the caller.
type Orchestrator struct {
	history   History
	store     plugin.ArtifactStore
	plugins   map[plugin.Stage][]plugin.Instance
	documents []manifest.Document
	calc      versioning.Calculator
	verifier  *verify.Verifier
	policy    retry.Policy
	tagFormat string
	pctx      *plugin.PluginContext
	observers observers
	logger    *slog.Logger
	newRunID  func() string
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPlugins sets the resolved plugins of one stage, in declared order.
func WithPlugins(stage plugin.Stage, instances []plugin.Instance) Option {
	return func(o *Orchestrator) {
		o.plugins[stage] = instances
	}
}

// WithDocuments registers the version-bearing documents rewritten on publish.
func WithDocuments(docs ...manifest.Document) Option {
	return func(o *Orchestrator) {
		o.documents = append(o.documents, docs...)
	}
}

// WithCalculator replaces the default version calculator.
func WithCalculator(c versioning.Calculator) Option {
	return func(o *Orchestrator) { o.calc = c }
}

// WithVerifier replaces the release verifier built from the retry policy.
func WithVerifier(v *verify.Verifier) Option {
	return func(o *Orchestrator) { o.verifier = v }
}

// WithRetryPolicy sets the read-back policy of the default verifier.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithTagFormat sets the release marker format, e.g. "v{{version}}".
func WithTagFormat(format string) Option {
	return func(o *Orchestrator) { o.tagFormat = format }
}

// WithPluginContext sets the collaborators handed to plugins.
func WithPluginContext(pc *plugin.PluginContext) Option {
	return func(o *Orchestrator) { o.pctx = pc }
}

// WithObserver adds a lifecycle observer.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs) }
}

// WithLogger sets the orchestrator logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithRunIDGenerator replaces the uuid run identifiers.
func WithRunIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newRunID = fn }
}

// New builds an orchestrator around the history collaborator and the
// artifact store the release verifier reads back from.
func New(h History, store plugin.ArtifactStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		history:   h,
		store:     store,
		plugins:   make(map[plugin.Stage][]plugin.Instance),
		calc:      versioning.NewCalculator(""),
		policy:    retry.DefaultPolicy(),
		tagFormat: versioning.DefaultTagFormat,
		logger:    slog.Default(),
		newRunID:  uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.pctx == nil {
		o.pctx = &plugin.PluginContext{}
	}
	if o.pctx.Store == nil {
		o.pctx.Store = store
	}
	if o.pctx.Logger == nil {
		o.pctx.Logger = o.logger
	}
	if o.pctx.TagFormat == "" {
		o.pctx.TagFormat = o.tagFormat
	}
	return o
}

// run is the mutable bookkeeping of one invocation.
type run struct {
	result  *Result
	rc      release.Context
	mutated bool
	logger  *slog.Logger
}

type stageFunc func(ctx context.Context, r *run) *ferrors.ClassifiedError

// Run executes one release attempt. The returned error is the classified
// abort reason and is nil when the run reaches Done. The Result is always
// non-nil.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Result, error) {
	start := o.now()
	runID := o.newRunID()
	r := &run{
		result: &Result{RunID: runID, DryRun: in.DryRun},
		rc: release.Context{
			RunID:        runID,
			PackageName:  in.PackageName,
			LastVersion:  in.LastVersion,
			LastCommit:   in.LastCommit,
			Branch:       in.Branch,
			PluginConfig: release.CloneConfig(in.PluginConfig),
			DryRun:       in.DryRun,
		},
		logger: o.logger.With(logfields.RunID(runID), logfields.Package(in.PackageName)),
	}

	r.logger.Info("Starting release run",
		logfields.LastVersion(in.LastVersion),
		slog.Int("commits", len(in.Commits)),
		slog.Bool("dry_run", in.DryRun))

	err := o.execute(ctx, r, StateInit, func(context.Context, *run) *ferrors.ClassifiedError {
		return o.init(r, in.Commits)
	})
	if err == nil {
		o.observers.runStart(ctx, RunInfo{
			RunID:       runID,
			PackageName: in.PackageName,
			LastVersion: in.LastVersion,
			Head:        r.rc.Head,
			DryRun:      in.DryRun,
		})
		err = o.advance(ctx, r)
	}
	return o.finish(ctx, r, start, err)
}

func (o *Orchestrator) advance(ctx context.Context, r *run) *ferrors.ClassifiedError {
	steps := []struct {
		state State
		fn    stageFunc
	}{
		{StateVerifyConditions, o.verifyConditions},
		{StateAnalyzeCommits, o.analyzeCommits},
		{StateComputeVersion, o.computeVersion},
		{StateVerifyRelease, o.verifyRelease},
		{StateGenerateNotes, o.generateNotes},
		{StatePublish, o.publish},
		{StateVerified, o.verifyPublished},
	}
	for _, step := range steps {
		if r.rc.DryRun && step.state.mutating() {
			r.logger.Info("Dry run: skipping publish", logfields.Version(r.rc.NextVersion))
			return nil
		}
		stageCtx := ctx
		if step.state.mutating() {
			stageCtx = context.WithoutCancel(ctx)
		} else if ctx.Err() != nil {
			return canceled(ctx, step.state)
		}
		if err := o.execute(stageCtx, r, step.state, step.fn); err != nil {
			if !step.state.mutating() && ctx.Err() != nil {
				return canceled(ctx, step.state).WithContext("stage_error", err.Error())
			}
			return err
		}
	}
	return nil
}

// execute enters state, runs fn and reports the outcome to observers.
func (o *Orchestrator) execute(ctx context.Context, r *run, state State, fn stageFunc) *ferrors.ClassifiedError {
	r.result.Transitions = append(r.result.Transitions, state)
	o.observers.stageStart(ctx, r.result.RunID, state)
	r.logger.Debug("Entering state", logfields.State(string(state)))

	begin := o.now()
	err := fn(ctx, r)
	report := StageReport{RunID: r.result.RunID, State: state, Result: metrics.ResultSuccess, Err: err, Duration: o.now().Sub(begin)}
	switch {
	case err == nil:
	case err.Kind() == ferrors.KindNoChange:
		report.Result = metrics.ResultSkipped
	case err.Kind() == ferrors.KindCanceled:
		report.Result = metrics.ResultCanceled
	default:
		report.Result = metrics.ResultFatal
	}
	o.observers.stageComplete(ctx, report)
	return err
}

func (o *Orchestrator) init(r *run, raws []commit.Raw) *ferrors.ClassifiedError {
	if err := o.checkPlugins(); err != nil {
		return err
	}
	head, err := o.history.Head()
	if err != nil {
		if ferrors.HasKind(err, ferrors.KindNoHead) {
			return ferrors.Classify(err)
		}
		return ferrors.WrapError(err, ferrors.KindNoHead, "cannot determine the HEAD commit").UserAction().Build()
	}
	if head == "" {
		return ferrors.NewError(ferrors.KindNoHead, "history reported an empty HEAD commit").UserAction().Build()
	}
	r.rc.Head = head
	r.rc.Commits = commit.ParseAll(raws)
	r.logger.Debug("Captured HEAD", logfields.Commit(head), slog.Int("commits", len(r.rc.Commits)))
	return nil
}

func (o *Orchestrator) markRelease(r *run) *ferrors.ClassifiedError {
	if err := o.history.SetReleaseMarker(r.rc.TagName, r.rc.Head); err != nil {
		if ferrors.HasKind(err, ferrors.KindMarker) {
			return ferrors.Classify(err).WithPartialMutation(true)
		}
		return ferrors.WrapError(err, ferrors.KindMarker, "failed to record the release marker").
			WithContext("tag", r.rc.TagName).
			PartialMutation(true).
			UserAction().
			Build()
	}
	r.logger.Info("Recorded release marker", slog.String("tag", r.rc.TagName), logfields.Commit(r.rc.Head))
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, r *run, start time.Time, err *ferrors.ClassifiedError) (*Result, error) {
	res := r.result
	res.Context = r.rc
	res.Duration = o.now().Sub(start)

	if err == nil {
		res.State = StateDone
		res.Transitions = append(res.Transitions, StateDone)
		r.logger.Info("Release run finished",
			logfields.Version(r.rc.NextVersion),
			logfields.ReleaseType(r.rc.ReleaseType.String()),
			slog.Bool("dry_run", res.DryRun),
			logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
		o.observers.runComplete(ctx, res)
		return res, nil
	}

	if r.mutated && !err.PartialMutation() {
		err = err.WithPartialMutation(true)
	}
	res.State = StateAborted
	res.Transitions = append(res.Transitions, StateAborted)
	res.Kind = err.Kind()
	res.Err = err
	res.PartialMutation = err.PartialMutation()

	level := slog.LevelError
	if err.Kind() == ferrors.KindNoChange {
		level = slog.LevelInfo
	}
	r.logger.Log(ctx, level, "Release run aborted",
		logfields.Kind(string(err.Kind())),
		logfields.Plugin(err.Plugin()),
		slog.Bool("partial_mutation", res.PartialMutation),
		logfields.Error(err))
	o.observers.runComplete(ctx, res)
	return res, err
}

func canceled(ctx context.Context, state State) *ferrors.ClassifiedError {
	return ferrors.WrapError(context.Cause(ctx), ferrors.KindCanceled, "release run canceled at "+string(state)).
		WithContext("state", string(state)).
		Build()
}
