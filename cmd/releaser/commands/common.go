package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/releaser/internal/config"
)

// Global is shared state handed to every subcommand.
type Global struct {
	Logger *slog.Logger
	// Out receives tables and other command output.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default releaser.yaml when present)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run     RunCmd     `cmd:"" help:"Run the release pipeline"`
	History HistoryCmd `cmd:"" help:"List published versions from the artifact registry"`
	Events  EventsCmd  `cmd:"" help:"Show recorded release runs and their events"`
	Watch   WatchCmd   `cmd:"" help:"Run the release pipeline on a schedule"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; it installs the bootstrap logger
// used until a command has loaded its configuration.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(NewLogger(os.Stderr, c.Verbose, nil))
	return nil
}

// NewLogger builds the process logger. Verbose forces debug level; cfg
// may be nil.
func NewLogger(w io.Writer, verbose bool, cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	format := config.LogFormatText
	if cfg != nil {
		format = config.NormalizeLogFormat(cfg.Format)
		switch config.NormalizeLogLevel(cfg.Level) {
		case config.LogLevelDebug:
			level = slog.LevelDebug
		case config.LogLevelWarn:
			level = slog.LevelWarn
		case config.LogLevelError:
			level = slog.LevelError
		}
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig loads the configuration and reinstalls the default logger
// according to its logging section.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(os.Stderr, root.Verbose, &cfg.Logging)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return cfg, nil
}

func output(g *Global) io.Writer {
	if g != nil && g.Out != nil {
		return g.Out
	}
	return os.Stdout
}
