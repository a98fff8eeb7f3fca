package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file looked up by LoadFromDir.
const FileName = "mdrun.yaml"

// Config holds all configuration for mdrun.
type Config struct {
	// Languages maps a fence language tag to the language id used to pick a
	// runner (e.g. "py" -> "python").
	Languages map[string]string `yaml:"languages"`
	// Templates maps a fence language tag to a template containing $snippet.
	Templates map[string]string `yaml:"templates"`
	// Runners maps a language id to the command that runs a snippet file.
	// "{file}" and "{dir}" are expanded in every argument.
	Runners map[string][]string `yaml:"runners"`
	// Extensions maps a language id to the extension of the temp file.
	Extensions map[string]string `yaml:"extensions"`

	Scan    ScanConfig    `yaml:"scan"`
	Search  SearchConfig  `yaml:"search"`
	Run     RunConfig     `yaml:"run"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScanConfig controls which files the index command reads.
type ScanConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// SearchConfig holds BM25 parameters for the search command.
type SearchConfig struct {
	K1              float64 `yaml:"k1"`
	B               float64 `yaml:"b"`
	PathBoostWeight float64 `yaml:"path_boost_weight"`
	TopK            int     `yaml:"top_k"`
}

// RunConfig holds snippet execution settings.
type RunConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	LineEnding string        `yaml:"line_ending"` // "auto", "lf" or "crlf"
	KeepFiles  bool          `yaml:"keep_files"`
}

// HistoryConfig holds run history settings.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit"` // records kept; 0 keeps everything
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Languages: map[string]string{
			"py":         "python",
			"python3":    "python",
			"js":         "javascript",
			"node":       "javascript",
			"ts":         "typescript",
			"sh":         "shellscript",
			"bash":       "shellscript",
			"shell":      "shellscript",
			"golang":     "go",
			"rb":         "ruby",
			"rs":         "rust",
			"c++":        "cpp",
			"ps1":        "powershell",
			"powershell": "powershell",
		},
		Templates: map[string]string{
			"go":     "package main\n\nfunc main() {\n\t$snippet\n}\n",
			"golang": "package main\n\nfunc main() {\n\t$snippet\n}\n",
			"rust":   "fn main() {\n    $snippet\n}\n",
			"rs":     "fn main() {\n    $snippet\n}\n",
		},
		Runners: map[string][]string{
			"python":      {"python3", "{file}"},
			"javascript":  {"node", "{file}"},
			"typescript":  {"npx", "tsx", "{file}"},
			"shellscript": {"bash", "{file}"},
			"go":          {"go", "run", "{file}"},
			"ruby":        {"ruby", "{file}"},
			"perl":        {"perl", "{file}"},
			"php":         {"php", "{file}"},
			"lua":         {"lua", "{file}"},
			"powershell":  {"pwsh", "-File", "{file}"},
			"rust":        {"sh", "-c", "rustc -o '{dir}/snippet' '{file}' && '{dir}/snippet'"},
			"cpp":         {"sh", "-c", "c++ -o '{dir}/snippet' '{file}' && '{dir}/snippet'"},
			"c":           {"sh", "-c", "cc -o '{dir}/snippet' '{file}' && '{dir}/snippet'"},
		},
		Extensions: map[string]string{
			"python":      ".py",
			"javascript":  ".js",
			"typescript":  ".ts",
			"shellscript": ".sh",
			"go":          ".go",
			"ruby":        ".rb",
			"rust":        ".rs",
			"perl":        ".pl",
			"php":         ".php",
			"lua":         ".lua",
			"powershell":  ".ps1",
			"cpp":         ".cpp",
			"c":           ".c",
		},
		Scan: ScanConfig{
			Includes: []string{"**/*.md", "**/*.markdown"},
			Excludes: []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/.mdrun/**"},
		},
		Search: SearchConfig{
			K1:              1.2,
			B:               0.75,
			PathBoostWeight: 0.3,
			TopK:            10,
		},
		Run: RunConfig{
			Timeout:    2 * time.Minute,
			LineEnding: "auto",
		},
		History: HistoryConfig{
			Enabled: true,
			Limit:   500,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// LanguageID returns the runner language id configured for a fence tag.
func (c *Config) LanguageID(tag string) (string, bool) {
	id, ok := c.Languages[tag]
	return id, ok
}

// Template returns the template configured for a fence tag.
func (c *Config) Template(tag string) (string, bool) {
	t, ok := c.Templates[tag]
	return t, ok
}

// Runner returns the command configured for a language id.
func (c *Config) Runner(languageID string) ([]string, bool) {
	argv, ok := c.Runners[languageID]
	if !ok || len(argv) == 0 {
		return nil, false
	}
	return argv, true
}

// Extension returns the temp file extension for a language id, ".txt" when
// none is configured.
func (c *Config) Extension(languageID string) string {
	if ext, ok := c.Extensions[languageID]; ok && ext != "" {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		return ext
	}
	return ".txt"
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	for id, argv := range c.Runners {
		if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
			return fmt.Errorf("runners.%s: command must not be empty", id)
		}
	}
	switch strings.ToLower(c.Run.LineEnding) {
	case "", "auto", "lf", "crlf":
	default:
		return fmt.Errorf("run.line_ending: unknown value %q", c.Run.LineEnding)
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("run.timeout: must not be negative")
	}
	if c.Search.K1 < 0 || c.Search.B < 0 || c.Search.B > 1 {
		return fmt.Errorf("search: k1 must be >= 0 and b within [0, 1]")
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit: must not be negative")
	}
	return nil
}

// Load loads configuration from a YAML file. Maps in the file are merged over
// the defaults key by key.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for mdrun.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".mdrun", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir returns the directory holding mdrun state for a project root.
func DataDir(dir string) string {
	return filepath.Join(dir, ".mdrun")
}

// IndexDBPath returns the path to the snippet index and history database.
func IndexDBPath(dir string) string {
	return filepath.Join(DataDir(dir), "index.db")
}

// EnsureDataDir ensures the .mdrun directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(DataDir(dir), 0755)
}
