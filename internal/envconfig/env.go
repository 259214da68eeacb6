package envconfig

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	kenv "github.com/kelseyhightower/envconfig"
)

var validate = validator.New()

// LoadDotEnv reads the given .env files (or ./.env when none are given) into the
// process environment. Variables already set are left untouched. It reports
// whether a file was loaded; a missing file is not an error.
func LoadDotEnv(paths ...string) (bool, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return false, nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return false, fmt.Errorf("load dotenv: %w", err)
	}
	return true, nil
}

// Process fills the struct pointed to by target from environment variables using
// `envconfig` and `default` struct tags, then validates it.
func Process(target any) error {
	if err := kenv.Process("", target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return Validate(target)
}

// Get returns the value of the requested environment variable or the supplied fallback when empty.
func Get(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

// Validate validates a struct using validator tags.
func Validate(v any) error {
	return validate.Struct(v)
}
