package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docpublisher/cmd/docpublisher/commands"
	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{}

	parser := kong.Parse(&cli,
		kong.Name("docpublisher"),
		kong.Description("Publish an MkDocs navigation tree as a Confluence page hierarchy."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err := parser.Run(global, &cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
