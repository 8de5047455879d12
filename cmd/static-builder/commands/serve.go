package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/mpalmer/static-builder/internal/server"
)

// ServeCmd serves the source tree without generating code.
type ServeCmd struct {
	Mode  string `name:"mode" help:"Override the build mode (frozen|live)"`
	Addr  string `name:"addr" help:"Override serve.addr"`
	Watch bool   `name:"watch" help:"Rebuild the route table when sources change"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	// Setup signal-based context for graceful shutdown
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root.Config, s.Mode)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Serve.Addr = s.Addr
	}
	cfg.Serve.Watch = cfg.Serve.Watch || s.Watch

	srv := server.New(cfg, server.Options{
		Watch:   cfg.Serve.Watch,
		Metrics: cfg.Serve.Metrics,
		Logger:  g.logger(),
	})
	return srv.Run(sigctx)
}
