// Package config holds the songqs configuration: where the song
// library lives, how to reach ChurchTools and how cleaning and logging
// behave. Configuration is a YAML file with environment overrides for
// the ChurchTools credentials, which CI provides as secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all songqs configuration.
type Config struct {
	Library     LibraryConfig     `yaml:"library"`
	ChurchTools ChurchToolsConfig `yaml:"churchtools"`
	Cleaning    CleaningConfig    `yaml:"cleaning"`
	Logging     LoggingConfig     `yaml:"logging"`
	Database    DatabaseConfig    `yaml:"database"`
}

// LibraryConfig locates the local song collection.
type LibraryConfig struct {
	// Root is the directory holding one folder per songbook category.
	Root string `yaml:"root"`
	// Output, when set, receives cleaned copies instead of overwriting
	// the originals.
	Output string `yaml:"output"`
	// Folders maps folder names to their songbook prefix. Folders with
	// an empty prefix hold songs without songbook numbers.
	Folders map[string]string `yaml:"folders"`
}

// ChurchToolsConfig configures the instance connection.
type ChurchToolsConfig struct {
	Domain       string `yaml:"domain"`
	Token        string `yaml:"token"`
	DefaultTagID int    `yaml:"default_tag_id"`
	ThrottleMS   int    `yaml:"throttle_ms"`
}

// CleaningConfig tunes the content fixes.
type CleaningConfig struct {
	LinesPerSlide int `yaml:"lines_per_slide"`
}

// LoggingConfig configures the console and file logs.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	File         string `yaml:"file"`
	MaxSizeBytes int64  `yaml:"max_size_bytes"`
	MaxBackups   int    `yaml:"max_backups"`
}

// DatabaseConfig locates the run history database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file exists.
// The folder map covers the songbooks of the default library layout.
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			Root: "./songs",
			Folders: map[string]string{
				"EG Lieder":              "EG",
				"EG Psalmen & Sonstiges": "EG",
				"Feiert Jesus 1":         "FJ1",
				"Feiert Jesus 2":         "FJ2",
				"Feiert Jesus 3":         "FJ3",
				"Feiert Jesus 4":         "FJ4",
				"Feiert Jesus 5":         "FJ5",
				"Feiert Jesus 6":         "FJ6",
				"Sonstige Lieder":        "",
				"Sonstige Texte":         "",
				"Hintergrundmusik":       "",
				"Wwdlp (Wo wir dich loben, wachsen neue Lieder plus)": "Wwdlp",
			},
		},
		ChurchTools: ChurchToolsConfig{
			DefaultTagID: 52,
			ThrottleMS:   100,
		},
		Cleaning: CleaningConfig{
			LinesPerSlide: 4,
		},
		Logging: LoggingConfig{
			Level:        "info",
			File:         "logs/songqs.log",
			MaxSizeBytes: 50000,
			MaxBackups:   3,
		},
		Database: DatabaseConfig{
			Path: "songqs.db",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// when the file does not exist. Environment overrides apply last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// yaml merges into a populated map, so a config naming its own
	// folders must replace the default set, not extend it.
	defaultFolders := cfg.Library.Folders
	cfg.Library.Folders = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Library.Folders == nil {
		cfg.Library.Folders = defaultFolders
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. The
// ChurchTools credentials come from the environment in CI.
func (c *Config) applyEnvOverrides() {
	if domain := os.Getenv("CT_DOMAIN"); domain != "" {
		c.ChurchTools.Domain = domain
	}
	if token := os.Getenv("CT_TOKEN"); token != "" {
		c.ChurchTools.Token = token
	}
}

// Throttle returns the configured request spacing.
func (c *Config) Throttle() time.Duration {
	return time.Duration(c.ChurchTools.ThrottleMS) * time.Millisecond
}

// Validate checks the configuration for values that would break a run.
func (c *Config) Validate() error {
	if c.Library.Root == "" {
		return fmt.Errorf("library root must not be empty")
	}
	if len(c.Library.Folders) == 0 {
		return fmt.Errorf("library folders must not be empty")
	}
	if c.Cleaning.LinesPerSlide < 1 {
		return fmt.Errorf("lines_per_slide must be at least 1, got %d", c.Cleaning.LinesPerSlide)
	}
	if c.Logging.MaxSizeBytes < 1 {
		return fmt.Errorf("log max_size_bytes must be positive, got %d", c.Logging.MaxSizeBytes)
	}
	return nil
}

// RequireChurchTools checks that the connection settings are complete,
// used by commands that talk to the instance.
func (c *Config) RequireChurchTools() error {
	if c.ChurchTools.Domain == "" {
		return fmt.Errorf("churchtools domain missing: set churchtools.domain or CT_DOMAIN")
	}
	if c.ChurchTools.Token == "" {
		return fmt.Errorf("churchtools token missing: set churchtools.token or CT_TOKEN")
	}
	return nil
}
