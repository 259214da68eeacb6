package envconfig

import (
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `envconfig:"ENVCONFIG_TEST_NAME" default:"anon" validate:"required"`
	Count int    `envconfig:"ENVCONFIG_TEST_COUNT" default:"1" validate:"gte=1"`
}

func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unset %s: %v", k, err)
		}
	}
}

func TestProcessAppliesDefaults(t *testing.T) {
	unset(t, "ENVCONFIG_TEST_NAME", "ENVCONFIG_TEST_COUNT")

	var s sample
	if err := Process(&s); err != nil {
		t.Fatalf("process: %v", err)
	}
	if s.Name != "anon" || s.Count != 1 {
		t.Fatalf("unexpected values %+v", s)
	}
}

func TestProcessValidates(t *testing.T) {
	unset(t, "ENVCONFIG_TEST_NAME")
	t.Setenv("ENVCONFIG_TEST_COUNT", "0")

	var s sample
	if err := Process(&s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestProcessRejectsUnparsableValues(t *testing.T) {
	t.Setenv("ENVCONFIG_TEST_COUNT", "many")

	var s sample
	if err := Process(&s); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	unset(t, "ENVCONFIG_DOTENV_KEY")
	t.Setenv("ENVCONFIG_DOTENV_KEEP", "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ENVCONFIG_DOTENV_KEY=from-file\nENVCONFIG_DOTENV_KEEP=from-file\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("ENVCONFIG_DOTENV_KEY") })

	loaded, err := LoadDotEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded {
		t.Fatal("expected file to be loaded")
	}
	if got := os.Getenv("ENVCONFIG_DOTENV_KEY"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("ENVCONFIG_DOTENV_KEEP"); got != "from-env" {
		t.Fatalf("existing variable was overwritten: %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	loaded, err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded {
		t.Fatal("expected nothing to be loaded")
	}
}

func TestGet(t *testing.T) {
	t.Setenv("ENVCONFIG_TEST_GET", "")
	if got := Get("ENVCONFIG_TEST_GET", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for empty value, got %q", got)
	}
	t.Setenv("ENVCONFIG_TEST_GET", "value")
	if got := Get("ENVCONFIG_TEST_GET", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}
