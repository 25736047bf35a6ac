package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("PANEL_TEST_EXISTING", "keep-me")
	body := "# comment\n\nPANEL_TEST_PLAIN=value\nPANEL_TEST_QUOTED=\"quoted value\"\nPANEL_TEST_SINGLE='single'\nPANEL_TEST_EXISTING=overwrite\nbroken line\n"
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	for _, key := range []string{"PANEL_TEST_PLAIN", "PANEL_TEST_QUOTED", "PANEL_TEST_SINGLE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	if err := LoadEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("PANEL_TEST_PLAIN"); got != "value" {
		t.Fatalf("plain = %q", got)
	}
	if got := os.Getenv("PANEL_TEST_QUOTED"); got != "quoted value" {
		t.Fatalf("quoted = %q", got)
	}
	if got := os.Getenv("PANEL_TEST_SINGLE"); got != "single" {
		t.Fatalf("single = %q", got)
	}
	if got := os.Getenv("PANEL_TEST_EXISTING"); got != "keep-me" {
		t.Fatalf("existing env overwritten: %q", got)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing file must be ignored, got %v", err)
	}
}
