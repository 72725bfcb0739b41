package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads KEY=value pairs from the first existing file in paths into
// the process environment so that SAASMETRICS_* overrides can live in a .env
// file. Variables already set in the environment win. It returns the path that
// was loaded, or "" when none of the files exist.
func LoadEnvFile(paths ...string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("failed to stat env file %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}
