package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/cmd/docsite/commands"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// exitRequest unwinds out of kong when it asks to exit, e.g. after --help.
type exitRequest struct{ code int }

func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			req, ok := r.(exitRequest)
			if !ok {
				panic(r)
			}
			code = req.code
		}
	}()

	cli := &commands.CLI{}
	global := &commands.Global{Out: stdout}
	parser, err := kong.New(cli,
		kong.Name("docsite"),
		kong.Description("Build and preview the Libernet documentation site."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitRequest{code: c}) }),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err != nil {
		_, _ = io.WriteString(stderr, err.Error()+"\n")
		return 1
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	if err := ctx.Run(global, cli); err != nil {
		return ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
	return 0
}
