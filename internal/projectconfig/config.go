// Package projectconfig provides the Config struct and loader for
// .policyready.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for project configuration. These are the single source of
// truth; New() references them and no other code should duplicate them.
const (
	DefaultBaseURL     = "http://localhost:8000"
	DefaultHistoryFile = "history.json"
	DefaultHistoryDir  = ".policyready"
	DefaultHistoryMax  = 50
	DefaultPhaseSource = "text"

	// EnvBaseURL overrides service.base_url; loaded from the environment or
	// a .env file in the working directory.
	EnvBaseURL = "POLICYREADY_BASE_URL"
)

// ServiceConfig holds how to reach the analysis service.
type ServiceConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
}

// HistoryConfig holds durable history settings.
type HistoryConfig struct {
	Path  string `yaml:"path,omitempty"`
	Limit int    `yaml:"limit,omitempty"`
}

// PhaseConfig selects the phase inference strategy.
type PhaseConfig struct {
	Source string `yaml:"source,omitempty"` // "text" or "tagged"
}

// Config is the top-level configuration loaded from .policyready.yaml.
type Config struct {
	Service ServiceConfig `yaml:"service,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Phase   PhaseConfig   `yaml:"phase,omitempty"`
}

// New returns a Config with all hard-coded defaults populated. The history
// path defaults into the user's home directory; when that is unavailable it
// falls back to a relative path.
func New() *Config {
	historyPath := filepath.Join(DefaultHistoryDir, DefaultHistoryFile)
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, DefaultHistoryDir, DefaultHistoryFile)
	}

	return &Config{
		Service: ServiceConfig{BaseURL: DefaultBaseURL},
		History: HistoryConfig{Path: historyPath, Limit: DefaultHistoryMax},
		Phase:   PhaseConfig{Source: DefaultPhaseSource},
	}
}

// Load finds .policyready.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults. A .env file in
// startDir is loaded first, and POLICYREADY_BASE_URL wins over both file and
// defaults. If no config file is found, returns defaults with a nil error.
func Load(startDir string) (*Config, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load(filepath.Join(startDir, ".env"))

	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("loading .policyready.yaml: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing .policyready.yaml: %w", err)
	}

	mergeConfig(cfg, &fileCfg)
	applyEnv(cfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .policyready.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found. Propagates
// real I/O errors (e.g. permission denied) instead of silently swallowing
// them.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ".policyready.yaml")
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *Config) {
	if src.Service.BaseURL != "" {
		dst.Service.BaseURL = src.Service.BaseURL
	}
	if src.History.Path != "" {
		dst.History.Path = src.History.Path
	}
	if src.History.Limit != 0 {
		dst.History.Limit = src.History.Limit
	}
	if src.Phase.Source != "" {
		dst.Phase.Source = src.Phase.Source
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Service.BaseURL = v
	}
}
