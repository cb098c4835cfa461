package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/releaser/internal/analyzer"
	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/logfields"
	"git.home.luguber.info/inful/releaser/internal/plugin"
	"git.home.luguber.info/inful/releaser/internal/release"
	"git.home.luguber.info/inful/releaser/internal/verify"
	"git.home.luguber.info/inful/releaser/internal/versioning"
)

// dispatch runs fn for every instance and returns the failure of the
// lowest declared index. Instances run concurrently only when all of them
// advertise plugin.CapabilityConcurrent; otherwise they run in order and
// stop at the first failure.
func dispatch(instances []plugin.Instance, fn func(i int, inst plugin.Instance) error) (int, error) {
	concurrent := len(instances) > 1
	for _, inst := range instances {
		if !inst.Concurrent() {
			concurrent = false
			break
		}
	}

	if !concurrent {
		for i, inst := range instances {
			if err := fn(i, inst); err != nil {
				return i, err
			}
		}
		return -1, nil
	}

	errs := make([]error, len(instances))
	var g errgroup.Group
	for i, inst := range instances {
		g.Go(func() error {
			errs[i] = fn(i, inst)
			return nil
		})
	}
	_ = g.Wait()
	for i, err := range errs {
		if err != nil {
			return i, err
		}
	}
	return -1, nil
}

// checkPlugins rejects instances that lack their stage's capability.
func (o *Orchestrator) checkPlugins() *ferrors.ClassifiedError {
	for _, stage := range plugin.Stages {
		for _, inst := range o.plugins[stage] {
			if !plugin.Supports(inst.Plugin, stage) {
				return ferrors.PluginConfig(inst.Name, fmt.Sprintf("plugin does not implement the %s stage", stage), nil)
			}
		}
	}
	return nil
}

func (o *Orchestrator) pluginContext(stage plugin.Stage, name string) *plugin.PluginContext {
	return o.pctx.ForPlugin(stage, name)
}

func (o *Orchestrator) verifyConditions(ctx context.Context, r *run) *ferrors.ClassifiedError {
	instances := o.plugins[plugin.StageVerifyConditions]
	rc := r.rc
	i, err := dispatch(instances, func(_ int, inst plugin.Instance) error {
		v := inst.Plugin.(plugin.ConditionVerifier)
		return v.VerifyConditions(ctx, o.pluginContext(inst.Stage, inst.Name), rc.Clone())
	})
	if err != nil {
		return ferrors.ClassifyAs(err, ferrors.KindVerifyConditions, instances[i].Name)
	}
	return nil
}

// fallbackAnalyzers classify commits when no analyzeCommits plugin is
// configured.
var fallbackAnalyzers = []analyzer.Analyzer{analyzer.Conventional}

func (o *Orchestrator) analyzeCommits(ctx context.Context, r *run) *ferrors.ClassifiedError {
	instances := o.plugins[plugin.StageAnalyzeCommits]
	var rt release.ReleaseType
	if len(instances) == 0 {
		rt = analyzer.Combine(fallbackAnalyzers, r.rc.Commits)
	} else {
		rc := r.rc
		results := make([]release.ReleaseType, len(instances))
		i, err := dispatch(instances, func(i int, inst plugin.Instance) error {
			a := inst.Plugin.(plugin.CommitAnalyzer)
			t, err := a.AnalyzeCommits(ctx, o.pluginContext(inst.Stage, inst.Name), rc.Clone())
			results[i] = t
			return err
		})
		if err != nil {
			return ferrors.ClassifyAs(err, ferrors.KindInternal, instances[i].Name)
		}
		rt = release.MaxOf(results...)
	}

	r.rc.ReleaseType = rt
	r.logger.Info("Analyzed commits",
		logfields.ReleaseType(rt.String()),
		slog.Int("commits", len(r.rc.Commits)))
	if rt == release.None {
		return ferrors.NoChange()
	}
	return nil
}

func (o *Orchestrator) computeVersion(_ context.Context, r *run) *ferrors.ClassifiedError {
	next, err := o.calc.Next(r.rc.LastVersion, r.rc.ReleaseType)
	if err != nil {
		return ferrors.Classify(err)
	}
	r.rc.NextVersion = next
	r.rc.TagName = versioning.RenderTag(o.tagFormat, next)
	r.logger.Info("Computed next version",
		logfields.LastVersion(r.rc.LastVersion),
		logfields.Version(next),
		logfields.ReleaseType(r.rc.ReleaseType.String()))
	return nil
}

func (o *Orchestrator) verifyRelease(ctx context.Context, r *run) *ferrors.ClassifiedError {
	for _, inst := range o.plugins[plugin.StageVerifyRelease] {
		v := inst.Plugin.(plugin.ReleaseVerifier)
		out, err := v.VerifyRelease(ctx, o.pluginContext(inst.Stage, inst.Name), r.rc.Clone())
		if err != nil {
			return ferrors.ClassifyAs(err, ferrors.KindVerifyRelease, inst.Name)
		}
		if out.NextVersion != r.rc.NextVersion || out.Head != r.rc.Head {
			return ferrors.NewError(ferrors.KindVerifyRelease, "plugin changed the computed version or HEAD commit").
				WithPlugin(inst.Name).
				WithContext("want_version", r.rc.NextVersion).
				WithContext("got_version", out.NextVersion).
				Build()
		}
		r.rc = out
	}
	return nil
}

func (o *Orchestrator) generateNotes(ctx context.Context, r *run) *ferrors.ClassifiedError {
	var fragments []string
	for _, inst := range o.plugins[plugin.StageGenerateNotes] {
		g := inst.Plugin.(plugin.NotesGenerator)
		fragment, err := g.GenerateNotes(ctx, o.pluginContext(inst.Stage, inst.Name), r.rc.Clone())
		if err != nil {
			warning := ferrors.ClassifyAs(err, ferrors.KindGenerateNotes, inst.Name)
			r.result.Warnings = append(r.result.Warnings, warning)
			r.logger.Warn("Omitting release notes fragment", logfields.Plugin(inst.Name), logfields.Error(err))
			continue
		}
		if fragment = strings.TrimSpace(fragment); fragment != "" {
			fragments = append(fragments, fragment)
		}
	}
	r.rc.Notes = strings.Join(fragments, NotesSeparator)
	return nil
}

// publish rewrites every version-bearing document, then runs the publish
// plugins strictly in order. Completed steps are never rolled back.
func (o *Orchestrator) publish(ctx context.Context, r *run) *ferrors.ClassifiedError {
	for _, doc := range o.documents {
		if err := doc.SetVersion(r.rc.NextVersion); err != nil {
			return ferrors.WrapError(err, ferrors.KindPublish, "failed to update version document").
				WithContext("path", doc.Path()).
				PartialMutation(r.mutated).
				UserAction().
				Build()
		}
		r.mutated = true
		r.logger.Info("Updated version document", logfields.Path(doc.Path()), logfields.Version(r.rc.NextVersion))
	}

	for _, inst := range o.plugins[plugin.StagePublish] {
		p := inst.Plugin.(plugin.Publisher)
		if err := p.Publish(ctx, o.pluginContext(inst.Stage, inst.Name), r.rc.Clone()); err != nil {
			classified := ferrors.ClassifyAs(err, ferrors.KindPublish, inst.Name)
			if r.mutated {
				classified = classified.WithPartialMutation(true)
			}
			return classified
		}
		r.mutated = true
		r.logger.Info("Publish step completed", logfields.Plugin(inst.Name))
	}
	return nil
}

// verifyPublished reads the artifact back, then records the release marker.
func (o *Orchestrator) verifyPublished(ctx context.Context, r *run) *ferrors.ClassifiedError {
	if o.store == nil {
		return ferrors.NewError(ferrors.KindVerifyArtifact, "no artifact store configured to verify against").
			PartialMutation(r.mutated).
			Build()
	}
	v := o.verifier
	if v == nil {
		v = verify.New(o.store, o.policy, verify.WithLogger(r.logger))
	}
	want := verify.Expectation{Name: r.rc.PackageName, Version: r.rc.NextVersion, BoundCommit: r.rc.Head}
	if err := v.Verify(ctx, want); err != nil {
		return ferrors.Classify(err)
	}
	r.logger.Info("Verified published artifact", logfields.Version(want.Version), logfields.Commit(want.BoundCommit))
	return o.markRelease(r)
}
