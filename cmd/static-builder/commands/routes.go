package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mpalmer/static-builder/internal/build"
	"github.com/mpalmer/static-builder/internal/rebuild"
	"github.com/mpalmer/static-builder/pkg/routes"
)

// RoutesCmd implements the 'routes' command.
type RoutesCmd struct {
	Mode string `name:"mode" help:"Override the build mode (frozen|live)"`
}

func (r *RoutesCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, r.Mode)
	if err != nil {
		return err
	}
	res, err := build.NewService().Run(context.Background(), cfg, rebuild.Nop{})
	if err != nil {
		return err
	}
	RenderRoutes(g.stdout(), res.Table, cfg.SourceDir())
	return nil
}

// RenderRoutes prints one row per registered URL path. Sources are shown
// relative to sourceDir when possible.
func RenderRoutes(w io.Writer, tbl *routes.Table, sourceDir string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"URL", "Source", "Media Type", "Kind", "Size"})
	for p, e := range tbl.All() {
		src := tbl.Origin(p)
		if rel, err := filepath.Rel(sourceDir, src); err == nil {
			src = rel
		}
		size := "-"
		if !e.IsLive() {
			size = humanSize(len(e.Body()))
		}
		t.AppendRow(table.Row{p, src, e.MediaType(), e.Kind(), size})
	}
	t.AppendFooter(table.Row{"", "", "", "Routes", tbl.Len()})
	t.Render()
}

func humanSize(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
