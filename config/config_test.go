package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if id, ok := cfg.LanguageID("py"); !ok || id != "python" {
		t.Errorf("expected py -> python, got %q (%v)", id, ok)
	}
	if _, ok := cfg.Template("go"); !ok {
		t.Error("expected a default go template")
	}
	if argv, ok := cfg.Runner("python"); !ok || argv[0] != "python3" {
		t.Errorf("unexpected python runner: %v", argv)
	}
	if cfg.Run.Timeout != 2*time.Minute {
		t.Errorf("expected Timeout=2m, got %s", cfg.Run.Timeout)
	}
	if !cfg.History.Enabled {
		t.Error("expected history enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultConfig_EveryLanguageHasRunner(t *testing.T) {
	cfg := DefaultConfig()

	ids := make(map[string]bool)
	for _, id := range cfg.Languages {
		ids[id] = true
	}
	for id := range cfg.Extensions {
		ids[id] = true
	}
	for tag := range cfg.Templates {
		id, ok := cfg.LanguageID(tag)
		if !ok {
			id = tag
		}
		ids[id] = true
	}

	for id := range ids {
		if _, ok := cfg.Runner(id); !ok {
			t.Errorf("language %q has no default runner", id)
		}
	}
}

func TestExtension(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extensions["kotlin"] = "kts"

	if ext := cfg.Extension("python"); ext != ".py" {
		t.Errorf("expected .py, got %s", ext)
	}
	if ext := cfg.Extension("kotlin"); ext != ".kts" {
		t.Errorf("expected .kts, got %s", ext)
	}
	if ext := cfg.Extension("unknown"); ext != ".txt" {
		t.Errorf("expected .txt, got %s", ext)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/mdrun.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "mdrun.yaml")

	content := `
languages:
  py: python2
  kt: kotlin
templates:
  kt: "fun main() {\n    $snippet\n}"
runners:
  kotlin: ["kotlinc", "-script", "{file}"]
run:
  timeout: 30s
  line_ending: crlf
history:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id, _ := cfg.LanguageID("py"); id != "python2" {
		t.Errorf("expected py -> python2, got %s", id)
	}
	if id, _ := cfg.LanguageID("js"); id != "javascript" {
		t.Errorf("expected defaults to survive merge, got js -> %s", id)
	}
	if tmpl, _ := cfg.Template("kt"); tmpl != "fun main() {\n    $snippet\n}" {
		t.Errorf("unexpected kt template: %q", tmpl)
	}
	if argv, ok := cfg.Runner("kotlin"); !ok || len(argv) != 3 {
		t.Errorf("unexpected kotlin runner: %v", argv)
	}
	if cfg.Run.Timeout != 30*time.Second {
		t.Errorf("expected Timeout=30s, got %s", cfg.Run.Timeout)
	}
	if cfg.Run.LineEnding != "crlf" {
		t.Errorf("expected line_ending=crlf, got %s", cfg.Run.LineEnding)
	}
	if cfg.History.Enabled {
		t.Error("expected history disabled")
	}
}

func TestLoad_InvalidRunner(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "mdrun.yaml")

	content := `
runners:
  python: []
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected validation error for empty runner")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".mdrun"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".mdrun", "config.yaml")

	content := `
logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected Level=debug, got %s", cfg.Logging.Level)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdrun.yaml")
	cfg := DefaultConfig()
	cfg.Languages["zsh"] = "shellscript"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if id, _ := loaded.LanguageID("zsh"); id != "shellscript" {
		t.Errorf("expected zsh -> shellscript after reload, got %s", id)
	}
	if loaded.Run.Timeout != cfg.Run.Timeout {
		t.Errorf("timeout changed across save: %s != %s", loaded.Run.Timeout, cfg.Run.Timeout)
	}
}

func TestIndexDBPath(t *testing.T) {
	path := IndexDBPath("/home/user/notes")
	expected := filepath.Join("/home/user/notes", ".mdrun", "index.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}
