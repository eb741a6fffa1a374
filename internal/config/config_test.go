package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, defaultPort)
	}
	if filepath.Base(cfg.DBPath) != "tabtray.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Live || cfg.Profile != "" {
		t.Errorf("unexpected cfg %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
db_path = "` + filepath.Join(dir, "cards.db") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
port = 20202
profile = "dev-edition"
live = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{
		DBPath:  filepath.Join(dir, "cards.db"),
		LogDir:  filepath.Join(dir, "logs"),
		Port:    20202,
		Profile: "dev-edition",
		Live:    true,
	}
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte("port = ["), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	os.WriteFile(path, []byte(`port = 20202`+"\n"+`profile = "a"`), 0o644)

	t.Setenv("TABTRAY_PORT", "30303")
	t.Setenv("TABTRAY_PROFILE", "b")
	t.Setenv("TABTRAY_LIVE", "1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 30303 || cfg.Profile != "b" || !cfg.Live {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"TABTRAY_PORT": "not-a-port",
		"TABTRAY_LIVE": "sometimes",
	}
	for key, val := range tests {
		cfg := Default()
		err := cfg.applyEnv(func(k string) string {
			if k == key {
				return val
			}
			return ""
		})
		if err == nil {
			t.Errorf("%s=%q: expected error", key, val)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/x/y")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Errorf("got %q", got)
	}
	if _, err := ExpandPath("  "); err == nil {
		t.Error("expected error for empty path")
	}
}
