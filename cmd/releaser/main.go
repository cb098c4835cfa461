package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/releaser/cmd/releaser/commands"
	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("releaser"),
		kong.Description("Compute, publish and verify package releases from conventional commits."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	globals := &commands.Global{Logger: slog.Default(), Out: os.Stdout}
	err := parser.Run(globals, cli)

	ferrors.NewCLIErrorAdapter(cli.Verbose, globals.Logger).
		AllowNoChange(cli.Run.AllowNoChange).
		HandleError(err)
}
