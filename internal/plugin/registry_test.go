package plugin

import (
	"errors"
	"testing"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
)

func analyzerFactory(name string) Factory {
	return func(map[string]any) (Plugin, error) {
		return &mockAnalyzer{metadata: PluginMetadata{Name: name, Version: "v1.0.0"}}, nil
	}
}

// TestRegistryRegister tests plugin registration.
func TestRegistryRegister(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register("conventional", analyzerFactory("conventional")); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if !registry.Has("conventional") {
		t.Error("Plugin should be registered")
	}
	if err := registry.Register("conventional", analyzerFactory("conventional")); err == nil {
		t.Error("Should not allow duplicate registration")
	}
	if err := registry.Register("", analyzerFactory("x")); err == nil {
		t.Error("Should not allow empty name")
	}
	if err := registry.Register("nil", nil); err == nil {
		t.Error("Should not allow nil factory")
	}
	if registry.Count() != 1 {
		t.Errorf("Count() = %d, want 1", registry.Count())
	}
}

func TestRegistryNewErrors(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister("broken", func(map[string]any) (Plugin, error) {
		return nil, errors.New("missing option")
	})
	registry.MustRegister("nameless", func(map[string]any) (Plugin, error) {
		return &mockAnalyzer{}, nil
	})

	_, err := registry.New("ghost", nil)
	if ferrors.KindOf(err) != ferrors.KindMissingPlugin {
		t.Errorf("expected EMISSINGPLUGIN, got %v", err)
	}
	if ce, _ := ferrors.AsClassified(err); ce.Plugin() != "ghost" {
		t.Errorf("expected plugin name on error, got %q", ce.Plugin())
	}

	_, err = registry.New("broken", nil)
	if ferrors.KindOf(err) != ferrors.KindPluginConfig {
		t.Errorf("expected EPLUGINCONFIG, got %v", err)
	}

	_, err = registry.New("nameless", nil)
	if ferrors.KindOf(err) != ferrors.KindPluginConfig {
		t.Errorf("expected EPLUGINCONFIG for invalid metadata, got %v", err)
	}
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister("a", analyzerFactory("a"))
	registry.MustRegister("b", analyzerFactory("b"))

	got, err := registry.Resolve(StageAnalyzeCommits, []Spec{{Name: "b"}, {Name: "a"}})
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "a" {
		t.Fatalf("Resolve() must keep declared order, got %+v", got)
	}
	if got[0].Stage != StageAnalyzeCommits {
		t.Errorf("unexpected stage %s", got[0].Stage)
	}

	_, err = registry.Resolve(StagePublish, []Spec{{Name: "a"}})
	if ferrors.KindOf(err) != ferrors.KindPluginConfig {
		t.Errorf("expected EPLUGINCONFIG for missing capability, got %v", err)
	}

	_, err = registry.Resolve(StageAnalyzeCommits, []Spec{{Name: "a"}, {Name: "zzz"}})
	if ferrors.KindOf(err) != ferrors.KindMissingPlugin {
		t.Errorf("expected EMISSINGPLUGIN, got %v", err)
	}
}

func TestRegistryNamesAndUnregister(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister("zeta", analyzerFactory("zeta"))
	registry.MustRegister("alpha", analyzerFactory("alpha"))

	names := registry.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Names() = %v", names)
	}
	if err := registry.Unregister("alpha"); err != nil {
		t.Fatalf("Unregister() failed: %v", err)
	}
	if err := registry.Unregister("alpha"); err == nil {
		t.Error("second Unregister should fail")
	}
	if registry.Has("alpha") {
		t.Error("alpha should be gone")
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister("x", analyzerFactory("x"))
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	registry.MustRegister("x", analyzerFactory("x"))
}
