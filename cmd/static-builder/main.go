package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mpalmer/static-builder/cmd/static-builder/commands"
	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
	"github.com/mpalmer/static-builder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("static-builder"),
		kong.Description("Compile a directory of static resources into a Go route table."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)
	err := parser.Run(&commands.Global{Logger: slog.Default(), Stdout: os.Stdout}, cli)
	derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
