package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	RepoSearchPaths []string          `json:"repo_search_paths,omitempty"`
	DefaultTeam     string            `json:"default_team,omitempty"`
	LinearTeams     map[string]string `json:"linear_teams,omitempty"`
}

// LoadConfig reads ~/.wfx/config.json. A missing file yields defaults so
// the git/gh commands work without any setup.
func LoadConfig() (Config, error) {
	path, err := configPath()
	if err != nil {
		return defaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.RepoSearchPaths) == 0 {
		cfg.RepoSearchPaths = defaultConfig().RepoSearchPaths
	}
	return cfg, nil
}

func SaveConfig(cfg Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func configPath() (string, error) {
	home := os.Getenv("HOME")
	if strings.TrimSpace(home) == "" {
		return "", errors.New("HOME not set")
	}
	return filepath.Join(home, ".wfx", "config.json"), nil
}

func defaultConfig() Config {
	cfg := Config{}
	if home := strings.TrimSpace(os.Getenv("HOME")); home != "" {
		cfg.RepoSearchPaths = []string{filepath.Join(home, "repos")}
	}
	return cfg
}

// RepoSearchPathsFromEnv lets WFX_REPO_PATHS (colon-separated) override the
// configured repository search paths.
func RepoSearchPathsFromEnv(cfg Config) []string {
	env := strings.TrimSpace(os.Getenv("WFX_REPO_PATHS"))
	if env == "" {
		return cfg.RepoSearchPaths
	}
	paths := make([]string, 0, 4)
	for _, p := range strings.Split(env, ":") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
