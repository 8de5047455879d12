package commands

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mpalmer/static-builder/internal/build"
	"github.com/mpalmer/static-builder/internal/config"
	"github.com/mpalmer/static-builder/internal/linkverify"
	"github.com/mpalmer/static-builder/internal/rebuild"
)

// CheckCmd implements the 'check' command. It always builds in frozen mode
// so rendered HTML can be inspected.
type CheckCmd struct{}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	cfg.Mode = config.ModeFrozen
	return RunCheck(context.Background(), g, cfg)
}

// RunCheck builds cfg and fails when any internal link is broken.
func RunCheck(ctx context.Context, g *Global, cfg *config.Config) error {
	res, err := build.NewService().Run(ctx, cfg, rebuild.Nop{})
	if err != nil {
		return err
	}
	broken, err := linkverify.Verify(res.Table)
	if err != nil {
		return err
	}
	out := g.stdout()
	if len(broken) == 0 {
		_, _ = fmt.Fprintf(out, "OK: %d routes, no broken internal links\n", res.Table.Len())
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Page", "Tag", "Link", "Resolved"})
	for _, b := range broken {
		t.AppendRow(table.Row{b.Page, b.Link.Tag, b.Link.URL, b.Target})
	}
	t.Render()
	return linkverify.Error(broken)
}
