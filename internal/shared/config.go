package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Library  LibraryConfig  `toml:"library"`
	Database DatabaseConfig `toml:"database"`
	Render   RenderConfig   `toml:"render"`
	Import   ImportConfig   `toml:"import"`
}

// LibraryConfig describes the layout of the source archive.
type LibraryConfig struct {
	SongsDir       string   `toml:"songs_dir"`
	SpeechesDir    string   `toml:"speeches_dir"`
	ActivitiesFile string   `toml:"activities_file"`
	ProgramDirs    []string `toml:"program_dirs"`
	BlobDir        string   `toml:"blob_dir"`
	CreatedBy      string   `toml:"created_by"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RenderConfig configures the best-effort notation render service.
type RenderConfig struct {
	Enabled   bool    `toml:"enabled"`
	BaseURL   string  `toml:"base_url"`
	RateLimit float64 `toml:"rate_limit"`
}

// ImportConfig tunes import concurrency.
// Program and resync stages are always sequential.
type ImportConfig struct {
	SpeechWorkers  int `toml:"speech_workers"`
	SongDirWorkers int `toml:"song_dir_workers"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
