package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/releaser/internal/commit"
	"git.home.luguber.info/inful/releaser/internal/config"
	"git.home.luguber.info/inful/releaser/internal/eventstore"
	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/manifest"
	"git.home.luguber.info/inful/releaser/internal/metrics"
	"git.home.luguber.info/inful/releaser/internal/plugin"
	"git.home.luguber.info/inful/releaser/internal/release"
	"git.home.luguber.info/inful/releaser/internal/retry"
	"git.home.luguber.info/inful/releaser/internal/verify"
)

const testHead = "0123456789abcdef0123456789abcdef01234567"

type harness struct {
	history *fakeHistory
	store   *memStore
	calls   *calls
}

func newHarness() *harness {
	return &harness{history: newFakeHistory(testHead), store: newMemStore(), calls: &calls{}}
}

func (h *harness) orchestrator(opts ...Option) *Orchestrator {
	base := []Option{
		WithLogger(discardLogger()),
		WithRunIDGenerator(func() string { return "run-1" }),
		WithVerifier(verify.New(h.store, retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2),
			verify.WithSleep(func(time.Duration) {}), verify.WithLogger(discardLogger()))),
	}
	return New(h.history, h.store, append(base, opts...)...)
}

func (h *harness) plugin(name string) *fakePlugin {
	return &fakePlugin{name: name, calls: h.calls}
}

// releasing returns the options of a run that publishes a minor release.
func (h *harness) releasing(extra ...Option) []Option {
	an := h.plugin("analyzer")
	an.analyze = analyzeAs(release.Minor)
	pub := h.plugin("publisher")
	pub.publish = storePublisher
	return append([]Option{
		WithPlugins(plugin.StageAnalyzeCommits, instances(plugin.StageAnalyzeCommits, an)),
		WithPlugins(plugin.StagePublish, instances(plugin.StagePublish, pub)),
	}, extra...)
}

func input() Input {
	return Input{
		PackageName: "demo",
		LastVersion: "1.2.3",
		LastCommit:  "fedcba",
		Commits:     []commit.Raw{{Hash: "c1", Message: "feat: add thing"}},
	}
}

func TestRunPublishesAndMarks(t *testing.T) {
	h := newHarness()
	res, err := h.orchestrator(h.releasing()...).Run(t.Context(), input())
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.True(t, res.Released())
	assert.Equal(t, "done", res.Outcome())
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "1.3.0", res.Context.NextVersion)
	assert.Equal(t, "v1.3.0", res.Context.TagName)
	assert.Equal(t, release.Minor, res.Context.ReleaseType)
	assert.Equal(t, testHead, res.Context.Head)
	assert.Equal(t, []State{
		StateInit, StateVerifyConditions, StateAnalyzeCommits, StateComputeVersion,
		StateVerifyRelease, StateGenerateNotes, StatePublish, StateVerified, StateDone,
	}, res.Transitions)

	rec, err := h.store.Read(t.Context(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", rec.Version)
	assert.Equal(t, testHead, rec.BoundCommit)
	assert.Equal(t, testHead, h.history.markers["v1.3.0"])
}

func TestRunFirstReleaseUsesInitialVersion(t *testing.T) {
	h := newHarness()
	in := input()
	in.LastVersion, in.LastCommit = "", ""

	res, err := h.orchestrator(h.releasing(WithTagFormat("demo@{{version}}"))...).Run(t.Context(), in)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", res.Context.NextVersion)
	assert.Equal(t, "demo@1.0.0", res.Context.TagName)
	assert.Contains(t, h.history.markers, "demo@1.0.0")
}

func TestRunNoChange(t *testing.T) {
	h := newHarness()
	an := h.plugin("analyzer")
	pub := h.plugin("publisher")
	o := h.orchestrator(
		WithPlugins(plugin.StageAnalyzeCommits, instances(plugin.StageAnalyzeCommits, an)),
		WithPlugins(plugin.StagePublish, instances(plugin.StagePublish, pub)),
	)

	res, err := o.Run(t.Context(), input())
	require.Error(t, err)
	assert.Equal(t, ferrors.KindNoChange, ferrors.KindOf(err))
	assert.True(t, res.NoChange())
	assert.Equal(t, StateAborted, res.State)
	assert.False(t, res.PartialMutation)
	assert.Equal(t, StateAnalyzeCommits, res.Transitions[len(res.Transitions)-2])
	assert.False(t, h.calls.has("publisher:publish"))
	assert.Empty(t, h.history.markers)
}

func TestAnalyzeDefaultsToConventional(t *testing.T) {
	h := newHarness()
	pub := h.plugin("publisher")
	pub.publish = storePublisher
	o := h.orchestrator(WithPlugins(plugin.StagePublish, instances(plugin.StagePublish, pub)))

	in := input()
	in.Commits = []commit.Raw{{Hash: "c1", Message: "fix: x"}, {Hash: "c2", Message: "refactor!: drop api"}}
	res, err := o.Run(t.Context(), in)
	require.NoError(t, err)
	assert.Equal(t, release.Major, res.Context.ReleaseType)
	assert.Equal(t, "2.0.0", res.Context.NextVersion)
}

func TestAnalyzersTakeMaximum(t *testing.T) {
	h := newHarness()
	a1, a2, a3 := h.plugin("a1"), h.plugin("a2"), h.plugin("a3")
	a1.analyze, a2.analyze, a3.analyze = analyzeAs(release.Patch), analyzeAs(release.Major), analyzeAs(release.None)
	a1.concurrent, a2.concurrent, a3.concurrent = true, true, true
	pub := h.plugin("publisher")
	pub.publish = storePublisher

	res, err := h.orchestrator(
		WithPlugins(plugin.StageAnalyzeCommits, instances(plugin.StageAnalyzeCommits, a1, a2, a3)),
		WithPlugins(plugin.StagePublish, instances(plugin.StagePublish, pub)),
	).Run(t.Context(), input())
	require.NoError(t, err)
	assert.Equal(t, release.Major, res.Context.ReleaseType)
}

func TestAnalyzerFailureIsInternal(t *testing.T) {
	h := newHarness()
	an := h.plugin("broken")
	an.analyze = func(context.Context) (release.ReleaseType, error) { return release.None, errBoom }

	_, err := h.orchestrator(WithPlugins(plugin.StageAnalyzeCommits, instances(plugin.StageAnalyzeCommits, an))).Run(t.Context(), input())
	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.KindInternal, classified.Kind())
	assert.Equal(t, "broken", classified.Plugin())
}

func TestVerifyConditionsLowestIndexFails(t *testing.T) {
	for _, concurrent := range []bool{true, false} {
		t.Run(map[bool]string{true: "concurrent", false: "sequential"}[concurrent], func(t *testing.T) {
			h := newHarness()
			ok, first, second := h.plugin("ok"), h.plugin("first"), h.plugin("second")
			var released sync.WaitGroup
			released.Add(1)
			first.conditions = func(context.Context) error {
				if concurrent {
					// Finish after the higher index has already failed.
					released.Wait()
				}
				return errBoom
			}
			second.conditions = func(context.Context) error {
				defer released.Done()
				return errBoom
			}
			for _, p := range []*fakePlugin{ok, first, second} {
				p.concurrent = concurrent
			}
			if !concurrent {
				released.Done()
			}

			res, err := h.orchestrator(h.releasing(
				WithPlugins(plugin.StageVerifyConditions, instances(plugin.StageVerifyConditions, ok, first, second)),
			)...).Run(t.Context(), input())

			classified, isClassified := ferrors.AsClassified(err)
			require.True(t, isClassified)
			assert.Equal(t, ferrors.KindVerifyConditions, classified.Kind())
			assert.Equal(t, "first", classified.Plugin())
			assert.Equal(t, "first", res.Err.Plugin())
			assert.Equal(t, concurrent, h.calls.has("second:verifyConditions"))
			assert.False(t, h.calls.has("analyzer:analyzeCommits"))
		})
	}
}

func TestMixedConcurrencyRunsInOrder(t *testing.T) {
	h := newHarness()
	a, b := h.plugin("a"), h.plugin("b")
	a.concurrent = true
	b.conditions = func(context.Context) error { return errBoom }
	c := h.plugin("c")

	_, err := h.orchestrator(h.releasing(
		WithPlugins(plugin.StageVerifyConditions, instances(plugin.StageVerifyConditions, a, b, c)),
	)...).Run(t.Context(), input())
	require.Error(t, err)
	assert.Equal(t, []string{"a:verifyConditions", "b:verifyConditions"}, h.calls.list())
}

func TestVerifyReleaseVeto(t *testing.T) {
	tests := []struct {
		name   string
		verify func(rc release.Context) (release.Context, error)
	}{
		{"error", func(rc release.Context) (release.Context, error) { return rc, errBoom }},
		{"changed version", func(rc release.Context) (release.Context, error) {
			rc.NextVersion = "9.9.9"
			return rc, nil
		}},
		{"changed head", func(rc release.Context) (release.Context, error) {
			rc.Head = "other"
			return rc, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			v := h.plugin("policy")
			v.verify = tt.verify

			res, err := h.orchestrator(h.releasing(
				WithPlugins(plugin.StageVerifyRelease, instances(plugin.StageVerifyRelease, v)),
			)...).Run(t.Context(), input())
			assert.Equal(t, ferrors.KindVerifyRelease, ferrors.KindOf(err))
			assert.Equal(t, "policy", res.Err.Plugin())
			assert.False(t, res.PartialMutation)
			assert.False(t, h.calls.has("publisher:publish"))
			assert.Empty(t, h.history.markers)
		})
	}
}

func TestVerifyReleaseMayEnrichContext(t *testing.T) {
	h := newHarness()
	v := h.plugin("tagger")
	v.verify = func(rc release.Context) (release.Context, error) {
		rc.TagName = "release-" + rc.NextVersion
		return rc, nil
	}
	res, err := h.orchestrator(h.releasing(
		WithPlugins(plugin.StageVerifyRelease, instances(plugin.StageVerifyRelease, v)),
	)...).Run(t.Context(), input())
	require.NoError(t, err)
	assert.Equal(t, "release-1.3.0", res.Context.TagName)
	assert.Contains(t, h.history.markers, "release-1.3.0")
}

func TestNotesFailureIsWarning(t *testing.T) {
	h := newHarness()
	broken, first, empty, second := h.plugin("broken"), h.plugin("first"), h.plugin("empty"), h.plugin("second")
	broken.notes = func() (string, error) { return "", errBoom }
	first.notes = func() (string, error) { return "## Features\n", nil }
	empty.notes = func() (string, error) { return "  \n", nil }
	second.notes = func() (string, error) { return "\n### Commits", nil }

	res, err := h.orchestrator(h.releasing(
		WithPlugins(plugin.StageGenerateNotes, instances(plugin.StageGenerateNotes, broken, first, empty, second)),
	)...).Run(t.Context(), input())
	require.NoError(t, err)

	assert.Equal(t, "## Features"+NotesSeparator+"### Commits", res.Context.Notes)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, ferrors.KindGenerateNotes, res.Warnings[0].Kind())
	assert.Equal(t, "broken", res.Warnings[0].Plugin())

	rec, err := h.store.Read(t.Context(), "demo")
	require.NoError(t, err)
	assert.Equal(t, res.Context.Notes, rec.Notes)
}

func TestPublishFailure(t *testing.T) {
	t.Run("first step", func(t *testing.T) {
		h := newHarness()
		failing := h.plugin("failing")
		failing.publish = func(context.Context, *plugin.PluginContext, release.Context) error { return errBoom }

		res, err := h.orchestrator(
			WithPlugins(plugin.StageAnalyzeCommits, instances(plugin.StageAnalyzeCommits, &fakePlugin{name: "an", analyze: analyzeAs(release.Patch)})),
			WithPlugins(plugin.StagePublish, instances(plugin.StagePublish, failing)),
		).Run(t.Context(), input())
		assert.Equal(t, ferrors.KindPublish, ferrors.KindOf(err))
		assert.False(t, res.PartialMutation)
		assert.Equal(t, "failing", res.Err.Plugin())
	})

	t.Run("after a completed step", func(t *testing.T) {
		h := newHarness()
		ok, failing, never := h.plugin("ok"), h.plugin("failing"), h.plugin("never")
		ok.publish = storePublisher
		failing.publish = func(context.Context, *plugin.PluginContext, release.Context) error { return errBoom }

		res, err := h.orchestrator(
			WithPlugins(plugin.StageAnalyzeCommits, instances(plugin.StageAnalyzeCommits, &fakePlugin{name: "an", analyze: analyzeAs(release.Patch)})),
			WithPlugins(plugin.StagePublish, instances(plugin.StagePublish, ok, failing, never)),
		).Run(t.Context(), input())

		classified, isClassified := ferrors.AsClassified(err)
		require.True(t, isClassified)
		assert.Equal(t, ferrors.KindPublish, classified.Kind())
		assert.True(t, classified.PartialMutation())
		assert.True(t, res.PartialMutation)
		assert.False(t, h.calls.has("never:publish"))
		assert.Empty(t, h.history.markers)

		// Completed steps are not rolled back.
		_, readErr := h.store.Read(t.Context(), "demo")
		assert.NoError(t, readErr)
	})
}

func TestPublishRewritesDocuments(t *testing.T) {
	h := newHarness()
	path := filepath.Join(t.TempDir(), "package.json")
	require.NoError(t, os.WriteFile(path, []byte("{\n  \"name\": \"demo\",\n  \"version\": \"1.2.3\"\n}\n"), 0o600))

	res, err := h.orchestrator(h.releasing(WithDocuments(manifest.NewJSONDocument(path, "")))...).Run(t.Context(), input())
	require.NoError(t, err)

	got, err := manifest.NewJSONDocument(path, "").GetVersion()
	require.NoError(t, err)
	assert.Equal(t, res.Context.NextVersion, got)
}

func TestPublishMissingDocumentAborts(t *testing.T) {
	h := newHarness()
	doc := manifest.NewJSONDocument(filepath.Join(t.TempDir(), "missing.json"), "")

	res, err := h.orchestrator(h.releasing(WithDocuments(doc))...).Run(t.Context(), input())
	assert.Equal(t, ferrors.KindPublish, ferrors.KindOf(err))
	assert.False(t, res.PartialMutation)
	assert.False(t, h.calls.has("publisher:publish"))
}

func TestVerifyArtifactMismatch(t *testing.T) {
	h := newHarness()
	pub := h.plugin("publisher")
	pub.publish = func(ctx context.Context, pc *plugin.PluginContext, rc release.Context) error {
		rc.Head = "stale"
		return storePublisher(ctx, pc, rc)
	}

	res, err := h.orchestrator(
		WithPlugins(plugin.StageAnalyzeCommits, instances(plugin.StageAnalyzeCommits, &fakePlugin{name: "an", analyze: analyzeAs(release.Patch)})),
		WithPlugins(plugin.StagePublish, instances(plugin.StagePublish, pub)),
	).Run(t.Context(), input())

	assert.Equal(t, ferrors.KindVerifyArtifact, ferrors.KindOf(err))
	assert.True(t, res.PartialMutation)
	assert.Equal(t, 3, h.store.reads, "one read plus two retries")
	assert.Empty(t, h.history.markers)
}

func TestMarkerFailureIsPartial(t *testing.T) {
	h := newHarness()
	h.history.markerErr = errBoom

	res, err := h.orchestrator(h.releasing()...).Run(t.Context(), input())
	assert.Equal(t, ferrors.KindMarker, ferrors.KindOf(err))
	assert.True(t, res.PartialMutation)
	assert.Equal(t, StateVerified, res.Transitions[len(res.Transitions)-2])
}

func TestInitFailures(t *testing.T) {
	t.Run("no head", func(t *testing.T) {
		h := newHarness()
		h.history.headErr = errBoom
		res, err := h.orchestrator(h.releasing()...).Run(t.Context(), input())
		assert.Equal(t, ferrors.KindNoHead, ferrors.KindOf(err))
		assert.Equal(t, []State{StateInit, StateAborted}, res.Transitions)
	})

	t.Run("empty head", func(t *testing.T) {
		h := newHarness()
		h.history.head = ""
		_, err := h.orchestrator(h.releasing()...).Run(t.Context(), input())
		assert.Equal(t, ferrors.KindNoHead, ferrors.KindOf(err))
	})

	t.Run("missing capability", func(t *testing.T) {
		h := newHarness()
		res, err := h.orchestrator(
			WithPlugins(plugin.StagePublish, instances(plugin.StagePublish, analyzerOnly{})),
		).Run(t.Context(), input())
		classified, ok := ferrors.AsClassified(err)
		require.True(t, ok)
		assert.Equal(t, ferrors.KindPluginConfig, classified.Kind())
		assert.Equal(t, "analyzer-only", classified.Plugin())
		assert.Equal(t, []State{StateInit, StateAborted}, res.Transitions)
	})

	t.Run("invalid last version", func(t *testing.T) {
		h := newHarness()
		in := input()
		in.LastVersion = "not-a-version"
		_, err := h.orchestrator(h.releasing()...).Run(t.Context(), in)
		assert.Equal(t, ferrors.KindInvalidVersion, ferrors.KindOf(err))
	})
}

func TestCancellationBeforePublish(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(t.Context())
	an := h.plugin("analyzer")
	an.analyze = func(context.Context) (release.ReleaseType, error) {
		cancel()
		return release.Minor, nil
	}
	pub := h.plugin("publisher")
	pub.publish = storePublisher

	res, err := h.orchestrator(
		WithPlugins(plugin.StageAnalyzeCommits, instances(plugin.StageAnalyzeCommits, an)),
		WithPlugins(plugin.StagePublish, instances(plugin.StagePublish, pub)),
	).Run(ctx, input())

	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.KindCanceled, classified.Kind())
	assert.Contains(t, classified.Message(), string(StateComputeVersion))
	assert.False(t, res.PartialMutation)
	assert.False(t, h.calls.has("publisher:publish"))
}

func TestCancellationDuringStageError(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(t.Context())
	cond := h.plugin("slow")
	cond.conditions = func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	}

	_, err := h.orchestrator(h.releasing(
		WithPlugins(plugin.StageVerifyConditions, instances(plugin.StageVerifyConditions, cond)),
	)...).Run(ctx, input())
	assert.Equal(t, ferrors.KindCanceled, ferrors.KindOf(err))
}

func TestCancellationIgnoredOncePublishing(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(t.Context())
	first, second := h.plugin("first"), h.plugin("second")
	first.publish = func(ctx context.Context, pc *plugin.PluginContext, rc release.Context) error {
		cancel()
		return storePublisher(ctx, pc, rc)
	}
	second.publish = func(ctx context.Context, _ *plugin.PluginContext, _ release.Context) error {
		return ctx.Err()
	}

	res, err := h.orchestrator(
		WithPlugins(plugin.StageAnalyzeCommits, instances(plugin.StageAnalyzeCommits, &fakePlugin{name: "an", analyze: analyzeAs(release.Patch)})),
		WithPlugins(plugin.StagePublish, instances(plugin.StagePublish, first, second)),
	).Run(ctx, input())
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Contains(t, h.history.markers, "v1.2.4")
}

func TestDryRunStopsBeforePublish(t *testing.T) {
	h := newHarness()
	notes := h.plugin("notes")
	notes.notes = func() (string, error) { return "preview", nil }
	in := input()
	in.DryRun = true

	res, err := h.orchestrator(h.releasing(
		WithPlugins(plugin.StageGenerateNotes, instances(plugin.StageGenerateNotes, notes)),
	)...).Run(t.Context(), in)
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.True(t, res.DryRun)
	assert.False(t, res.Released())
	assert.Equal(t, "dry_run", res.Outcome())
	assert.Equal(t, "1.3.0", res.Context.NextVersion)
	assert.Equal(t, "preview", res.Context.Notes)
	assert.Equal(t, StateGenerateNotes, res.Transitions[len(res.Transitions)-2])
	assert.False(t, h.calls.has("publisher:publish"))
	assert.Empty(t, h.history.markers)
	assert.Zero(t, h.store.reads)
}

func TestStagesReceiveCopies(t *testing.T) {
	h := newHarness()
	v := h.plugin("mutator")
	v.verify = func(rc release.Context) (release.Context, error) {
		rc.Commits[0].Subject = "mutated"
		return rc, errBoom
	}
	in := input()

	res, _ := h.orchestrator(h.releasing(
		WithPlugins(plugin.StageVerifyRelease, instances(plugin.StageVerifyRelease, v)),
	)...).Run(t.Context(), in)
	assert.Equal(t, "add thing", res.Context.Commits[0].Subject)
	assert.Equal(t, "feat: add thing", in.Commits[0].Message)
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	stages   map[string]metrics.ResultLabel
	outcomes []string
	failures []string
}

func (c *countingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stages == nil {
		c.stages = make(map[string]metrics.ResultLabel)
	}
	c.stages[stage] = result
}

func (c *countingRecorder) IncRunOutcome(outcome string) {
	c.outcomes = append(c.outcomes, outcome)
}

func (c *countingRecorder) IncPluginFailure(stage, plugin string) {
	c.failures = append(c.failures, stage+"/"+plugin)
}

func TestMetricsObserver(t *testing.T) {
	h := newHarness()
	rec := &countingRecorder{}
	v := h.plugin("policy")
	v.verify = func(rc release.Context) (release.Context, error) { return rc, errBoom }

	_, err := h.orchestrator(h.releasing(
		WithPlugins(plugin.StageVerifyRelease, instances(plugin.StageVerifyRelease, v)),
		WithObserver(NewMetricsObserver(rec)),
	)...).Run(t.Context(), input())
	require.Error(t, err)

	assert.Equal(t, metrics.ResultSuccess, rec.stages[string(StateAnalyzeCommits)])
	assert.Equal(t, metrics.ResultFatal, rec.stages[string(StateVerifyRelease)])
	assert.Equal(t, []string{string(ferrors.KindVerifyRelease)}, rec.outcomes)
	assert.Equal(t, []string{"VerifyRelease/policy"}, rec.failures)
}

func TestMetricsObserverNoChangeIsSkipped(t *testing.T) {
	h := newHarness()
	rec := &countingRecorder{}
	_, err := h.orchestrator(
		WithPlugins(plugin.StageAnalyzeCommits, instances(plugin.StageAnalyzeCommits, h.plugin("none"))),
		WithObserver(NewMetricsObserver(rec)),
	).Run(t.Context(), input())
	require.Error(t, err)
	assert.Equal(t, metrics.ResultSkipped, rec.stages[string(StateAnalyzeCommits)])
	assert.Equal(t, []string{"ENOCHANGE"}, rec.outcomes)
}

func TestEventObserverRecordsRun(t *testing.T) {
	events, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close() })

	h := newHarness()
	res, err := h.orchestrator(h.releasing(WithObserver(NewEventObserver(events, discardLogger())))...).Run(t.Context(), input())
	require.NoError(t, err)

	stored, err := events.GetByRunID(t.Context(), res.RunID)
	require.NoError(t, err)
	require.NotEmpty(t, stored)
	types := make([]string, len(stored))
	for i, ev := range stored {
		types[i] = ev.Type()
	}
	// HEAD is only known once Init completed, so the start event follows it.
	assert.Equal(t, []string{eventstore.TypeStageCompleted, eventstore.TypeRunStarted}, types[:2])
	assert.Equal(t, eventstore.TypeRunFinished, stored[len(stored)-1].Type())

	projection := eventstore.NewRunHistoryProjection(events, 10)
	require.NoError(t, projection.Rebuild(t.Context()))
	summary, ok := projection.GetRun(res.RunID)
	require.True(t, ok)
	assert.Equal(t, string(StateDone), summary.Status)
	assert.Equal(t, "1.3.0", summary.Version)
	assert.Equal(t, "demo", summary.Package)
	assert.Equal(t, len(res.Transitions)-1, summary.Stages)
}

func TestResultOutcomeLabels(t *testing.T) {
	assert.Equal(t, "done", (&Result{State: StateDone}).Outcome())
	assert.Equal(t, "dry_run", (&Result{State: StateDone, DryRun: true}).Outcome())
	assert.Equal(t, "EPUBLISH", (&Result{State: StateAborted, Kind: ferrors.KindPublish}).Outcome())
	assert.True(t, StateAborted.IsTerminal())
	assert.False(t, StatePublish.IsTerminal())
	assert.True(t, strings.HasPrefix(StateVerified.String(), "Verif"))
}
