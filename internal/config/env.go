package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env and .env.local from dir. Variables already present
// in the process environment are never overwritten.
func loadEnvFiles(dir string) error {
	var found []string
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return errors.New("no .env file found")
	}
	if err := godotenv.Load(found...); err != nil {
		return err
	}
	slog.Debug("Loaded environment files", "files", found)
	return nil
}
