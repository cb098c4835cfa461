package plugins

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/logfields"
	"git.home.luguber.info/inful/releaser/internal/notify"
	"git.home.luguber.info/inful/releaser/internal/plugin"
	"git.home.luguber.info/inful/releaser/internal/release"
)

const (
	RegistryName     = "registry"
	HTMLNotesName    = "html-notes"
	NATSAnnounceName = "nats-announce"
)

// RegistryPublisher records the release in the artifact store, bound to
// the HEAD commit captured when the run started.
type RegistryPublisher struct {
	Channel string `koanf:"channel"`
}

func newRegistryPublisher(options map[string]any) (plugin.Plugin, error) {
	p := &RegistryPublisher{}
	if err := decodeOptions(RegistryName, options, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *RegistryPublisher) Metadata() plugin.PluginMetadata {
	return metadata(RegistryName, "Publishes the release to the artifact registry")
}

func (p *RegistryPublisher) Publish(ctx context.Context, pc *plugin.PluginContext, rc release.Context) error {
	if pc.Store == nil {
		return ferrors.NewError(ferrors.KindPublish, "no artifact store configured").WithPlugin(RegistryName).Build()
	}
	err := pc.Store.Publish(ctx, release.Artifact{
		Name:        rc.PackageName,
		Version:     rc.NextVersion,
		BoundCommit: rc.Head,
		Notes:       rc.Notes,
		Channel:     p.Channel,
	})
	if err != nil {
		return ferrors.ClassifyAs(err, ferrors.KindPublish, RegistryName)
	}
	pc.Logger.Info("Published artifact", logfields.Version(rc.NextVersion), logfields.Commit(rc.Head))
	return nil
}

// HTMLNotes renders the release notes to an HTML file.
type HTMLNotes struct {
	Path string `koanf:"path"`
}

func newHTMLNotes(options map[string]any) (plugin.Plugin, error) {
	p := &HTMLNotes{}
	if err := decodeOptions(HTMLNotesName, options, p); err != nil {
		return nil, err
	}
	if p.Path == "" {
		p.Path = filepath.Join(".releaser", "notes", "{{version}}.html")
	}
	return p, nil
}

func (p *HTMLNotes) Metadata() plugin.PluginMetadata {
	return metadata(HTMLNotesName, "Writes the release notes as HTML")
}

// Target resolves the output path for version.
func (p *HTMLNotes) Target(pc *plugin.PluginContext, version string) string {
	out := filepath.FromSlash(strings.ReplaceAll(p.Path, "{{version}}", version))
	if !filepath.IsAbs(out) && pc.WorkDir != "" {
		out = filepath.Join(pc.WorkDir, out)
	}
	return out
}

func (p *HTMLNotes) Publish(_ context.Context, pc *plugin.PluginContext, rc release.Context) error {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(rc.Notes), &buf); err != nil {
		return ferrors.WrapError(err, ferrors.KindPublish, "cannot render release notes").WithPlugin(HTMLNotesName).Build()
	}

	target := p.Target(pc, rc.NextVersion)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.KindPublish, "cannot create notes directory").WithPlugin(HTMLNotesName).Build()
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.KindPublish, fmt.Sprintf("cannot write %s", target)).WithPlugin(HTMLNotesName).Build()
	}
	pc.Logger.Info("Wrote HTML release notes", logfields.Path(target))
	return nil
}

// NATSAnnounce publishes a JSON release announcement on the message bus.
type NATSAnnounce struct {
	// Subject overrides the bus default subject.
	Subject string `koanf:"subject"`
}

func newNATSAnnounce(options map[string]any) (plugin.Plugin, error) {
	p := &NATSAnnounce{}
	if err := decodeOptions(NATSAnnounceName, options, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *NATSAnnounce) Metadata() plugin.PluginMetadata {
	return metadata(NATSAnnounceName, "Announces the release over NATS JetStream", plugin.CapabilityNetwork)
}

func (p *NATSAnnounce) Publish(ctx context.Context, pc *plugin.PluginContext, rc release.Context) error {
	if pc.Bus == nil {
		return ferrors.NewError(ferrors.KindPublish, "no message bus configured (set nats.url)").WithPlugin(NATSAnnounceName).Build()
	}
	a := notify.NewAnnouncement(rc, time.Now())
	data, err := a.Marshal()
	if err != nil {
		return ferrors.WrapError(err, ferrors.KindPublish, "cannot encode announcement").WithPlugin(NATSAnnounceName).Build()
	}
	if err := pc.Bus.Publish(ctx, p.Subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.KindPublish, "cannot publish announcement").
			WithPlugin(NATSAnnounceName).
			Retryable().
			Build()
	}
	pc.Logger.Info("Announced release", "announcement", a)
	return nil
}
