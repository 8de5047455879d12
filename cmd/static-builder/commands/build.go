package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mpalmer/static-builder/internal/build"
	"github.com/mpalmer/static-builder/internal/codegen"
	"github.com/mpalmer/static-builder/internal/config"
	"github.com/mpalmer/static-builder/internal/linkverify"
	"github.com/mpalmer/static-builder/internal/logfields"
	"github.com/mpalmer/static-builder/internal/rebuild"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Mode        string `name:"mode" help:"Override the build mode (frozen|live). Precedence: --mode > STATIC_BUILDER_MODE > config."`
	Out         string `short:"o" name:"out" help:"Override output.file"`
	Package     string `name:"package" help:"Override output.package"`
	Depfile     string `name:"depfile" help:"Write a Makefile-style dependency file"`
	VerifyLinks bool   `name:"verify-links" help:"Warn about internal links that resolve to no route (frozen mode)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, b.Mode)
	if err != nil {
		return err
	}
	if b.Out != "" {
		cfg.Output.File = absFlag(b.Out)
	}
	if b.Package != "" {
		cfg.Output.Package = b.Package
	}
	if b.Depfile != "" {
		cfg.Output.Depfile = absFlag(b.Depfile)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Links.Verify = cfg.Links.Verify || b.VerifyLinks
	return RunBuild(context.Background(), g, cfg)
}

// RunBuild compiles cfg's source tree and writes the generated Go file.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config) error {
	logger := g.logger()
	out := cfg.OutputFile()

	collector := rebuild.NewCollector()
	trace := rebuild.Func(func(p string) { logger.Debug("Build dependency", logfields.Path(p)) })
	res, err := build.NewService().Run(ctx, cfg, rebuild.Multi(collector, trace))
	if err != nil {
		return err
	}

	changed, err := codegen.WriteFile(out, res.Table, codegen.Options{
		Package:    cfg.Output.Package,
		LayoutsDir: cfg.LayoutsDir(),
	})
	if err != nil {
		return err
	}
	if changed {
		logger.Info("Wrote route table", logfields.Path(out), logfields.Count(res.Table.Len()))
	} else {
		logger.Debug("Route table unchanged", logfields.Path(out))
	}

	if dep := cfg.DepfilePath(); dep != "" {
		if err := collector.WriteDepfileTo(dep, out); err != nil {
			return err
		}
		logger.Debug("Wrote depfile", logfields.Path(dep), logfields.Count(len(collector.Paths())))
	}

	if cfg.Links.Verify {
		warnBrokenLinks(logger, cfg, res)
	}

	_, _ = fmt.Fprintf(g.stdout(), "Built %d routes from %d resources (%s mode) in %s\n",
		res.Table.Len(), res.Resources, res.Mode, res.Duration.Round(time.Millisecond))
	return nil
}

func warnBrokenLinks(logger *slog.Logger, cfg *config.Config, res *build.Result) {
	if !cfg.Mode.IsFrozen() {
		logger.Info("Skipping link verification in live mode")
		return
	}
	broken, err := linkverify.Verify(res.Table)
	if err != nil {
		logger.Warn("Link verification failed", logfields.Error(err))
		return
	}
	for _, b := range broken {
		logger.Warn("Broken internal link",
			logfields.URLPath(b.Page),
			logfields.Source(b.Source),
			slog.String("link", b.Link.URL),
			slog.String("target", b.Target))
	}
}
