package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"git.home.luguber.info/inful/releaser/internal/plugin"
	"git.home.luguber.info/inful/releaser/internal/release"
	"git.home.luguber.info/inful/releaser/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// calls records plugin invocations across goroutines.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, s)
}

func (c *calls) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.log)
}

func (c *calls) has(s string) bool {
	return slices.Contains(c.list(), s)
}

// fakePlugin implements every stage. Unset hooks succeed.
type fakePlugin struct {
	name       string
	concurrent bool
	calls      *calls

	conditions func(ctx context.Context) error
	analyze    func(ctx context.Context) (release.ReleaseType, error)
	verify     func(rc release.Context) (release.Context, error)
	notes      func() (string, error)
	publish    func(ctx context.Context, pc *plugin.PluginContext, rc release.Context) error
}

func (f *fakePlugin) Metadata() plugin.PluginMetadata {
	m := plugin.PluginMetadata{Name: f.name, Version: "v0.0.1"}
	if f.concurrent {
		m.Capabilities = []plugin.PluginCapability{plugin.CapabilityConcurrent}
	}
	return m
}

func (f *fakePlugin) record(stage plugin.Stage) {
	if f.calls != nil {
		f.calls.add(f.name + ":" + string(stage))
	}
}

func (f *fakePlugin) VerifyConditions(ctx context.Context, _ *plugin.PluginContext, _ release.Context) error {
	f.record(plugin.StageVerifyConditions)
	if f.conditions != nil {
		return f.conditions(ctx)
	}
	return nil
}

func (f *fakePlugin) AnalyzeCommits(ctx context.Context, _ *plugin.PluginContext, _ release.Context) (release.ReleaseType, error) {
	f.record(plugin.StageAnalyzeCommits)
	if f.analyze != nil {
		return f.analyze(ctx)
	}
	return release.None, nil
}

func (f *fakePlugin) VerifyRelease(_ context.Context, _ *plugin.PluginContext, rc release.Context) (release.Context, error) {
	f.record(plugin.StageVerifyRelease)
	if f.verify != nil {
		return f.verify(rc)
	}
	return rc, nil
}

func (f *fakePlugin) GenerateNotes(context.Context, *plugin.PluginContext, release.Context) (string, error) {
	f.record(plugin.StageGenerateNotes)
	if f.notes != nil {
		return f.notes()
	}
	return "", nil
}

func (f *fakePlugin) Publish(ctx context.Context, pc *plugin.PluginContext, rc release.Context) error {
	f.record(plugin.StagePublish)
	if f.publish != nil {
		return f.publish(ctx, pc, rc)
	}
	return nil
}

// analyzerOnly lacks every other stage capability.
type analyzerOnly struct{}

func (analyzerOnly) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{Name: "analyzer-only", Version: "v0.0.1"}
}

func (analyzerOnly) AnalyzeCommits(context.Context, *plugin.PluginContext, release.Context) (release.ReleaseType, error) {
	return release.Patch, nil
}

func instances(stage plugin.Stage, plugins ...plugin.Plugin) []plugin.Instance {
	out := make([]plugin.Instance, len(plugins))
	for i, p := range plugins {
		out[i] = plugin.Instance{Name: p.Metadata().Name, Stage: stage, Plugin: p}
	}
	return out
}

func analyzeAs(rt release.ReleaseType) func(context.Context) (release.ReleaseType, error) {
	return func(context.Context) (release.ReleaseType, error) { return rt, nil }
}

// storePublisher publishes the release into the plugin context store.
func storePublisher(ctx context.Context, pc *plugin.PluginContext, rc release.Context) error {
	return pc.Store.Publish(ctx, release.Artifact{Name: rc.PackageName, Version: rc.NextVersion, BoundCommit: rc.Head, Notes: rc.Notes})
}

type memStore struct {
	mu      sync.Mutex
	records map[string][]release.Record
	reads   int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string][]release.Record)}
}

func (m *memStore) Publish(_ context.Context, a release.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[a.Name] = append(m.records[a.Name], release.Record{Name: a.Name, Version: a.Version, BoundCommit: a.BoundCommit, Notes: a.Notes})
	return nil
}

func (m *memStore) Read(_ context.Context, name string) (release.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	recs := m.records[name]
	if len(recs) == 0 {
		return release.Record{}, store.ErrNotFound
	}
	return recs[len(recs)-1], nil
}

func (m *memStore) List(_ context.Context, name string) ([]release.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.records[name])
	slices.Reverse(out)
	return out, nil
}

type fakeHistory struct {
	head      string
	headErr   error
	markerErr error
	markers   map[string]string
}

func newFakeHistory(head string) *fakeHistory {
	return &fakeHistory{head: head, markers: make(map[string]string)}
}

func (h *fakeHistory) Head() (string, error) { return h.head, h.headErr }

func (h *fakeHistory) SetReleaseMarker(name, commitID string) error {
	if h.markerErr != nil {
		return h.markerErr
	}
	h.markers[name] = commitID
	return nil
}

var errBoom = errors.New("boom")
