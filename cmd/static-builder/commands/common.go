// Package commands implements the static-builder command line.
package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/mpalmer/static-builder/internal/config"
)

// LogLevelEnvVar raises logging to debug when set to "debug".
const LogLevelEnvVar = "STATIC_BUILDER_LOG_LEVEL"

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	// Stdout receives user-facing output.
	Stdout io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"static-builder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Compile the source tree into a Go route table"`
	Serve  ServeCmd  `cmd:"" help:"Serve the source tree directly for development"`
	Routes RoutesCmd `cmd:"" help:"List the URL paths a build would register"`
	Check  CheckCmd  `cmd:"" help:"Build in frozen mode and verify internal links"`
	Init   InitCmd   `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

func parseLogLevel(verbose bool) slog.Level {
	if verbose || strings.EqualFold(os.Getenv(LogLevelEnvVar), "debug") {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// loadConfig reads the configuration file and resolves the build mode.
func loadConfig(path, modeFlag string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	mode, err := config.ResolveMode(modeFlag, cfg)
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode
	return cfg, nil
}

// absFlag makes a path given on the command line absolute so it is not
// resolved against the configuration file's directory.
func absFlag(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
