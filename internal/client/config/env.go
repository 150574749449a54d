package config

import (
	"errors"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// dotenvFiles are loaded into the process environment before overlaying.
// Variables already set win over the files.
var dotenvFiles = []string{".env"}

// parseEnv overlays cfg with NOTEX_* environment variables. Unset variables
// leave fields untouched.
func parseEnv(cfg *Config) error {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return cleanenv.UpdateEnv(cfg)
}
