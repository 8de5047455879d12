package config

import (
	"log/slog"
	"os"

	"github.com/mpalmer/static-builder/internal/foundation/normalization"
)

// Mode selects the content lifecycle of a compilation.
type Mode string

const (
	// ModeFrozen bakes rendered content into the artifact at compile time.
	ModeFrozen Mode = "frozen"
	// ModeLive re-renders content from the source file on every request.
	ModeLive Mode = "live"
)

// ModeEnvVar overrides the configured mode when set.
const ModeEnvVar = "STATIC_BUILDER_MODE"

func (m Mode) String() string { return string(m) }

// IsFrozen reports whether content is baked at compile time.
func (m Mode) IsFrozen() bool { return m != ModeLive }

var modes = normalization.NewNormalizer(map[string]Mode{
	"frozen":  ModeFrozen,
	"release": ModeFrozen,
	"live":    ModeLive,
	"debug":   ModeLive,
})

// NormalizeMode canonicalizes user input, returning empty string if unknown.
// "release"/"debug" are accepted as aliases of frozen/live.
func NormalizeMode(raw string) Mode {
	return modes.Normalize(raw, "")
}

// ResolveMode determines the mode for one compilation.
// Precedence:
// 1. flag
// 2. STATIC_BUILDER_MODE
// 3. mode from the configuration file
// 4. fallback: frozen
//
// An unrecognized flag or environment value is a validation error.
func ResolveMode(flag string, cfg *Config) (Mode, error) {
	if flag != "" {
		return modes.NormalizeWithError("mode", flag)
	}
	if env := os.Getenv(ModeEnvVar); env != "" {
		m, err := modes.NormalizeWithError(ModeEnvVar, env)
		if err != nil {
			return "", err
		}
		if cfg != nil && cfg.Mode != "" && cfg.Mode != m {
			slog.Info("Overriding configured mode from environment", "configured", cfg.Mode, "env", m)
		}
		return m, nil
	}
	if cfg != nil {
		if m := NormalizeMode(string(cfg.Mode)); m != "" {
			return m, nil
		}
	}
	return ModeFrozen, nil
}
