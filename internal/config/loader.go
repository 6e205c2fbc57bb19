package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon. Zero values mean
// "unspecified"; loader fields fall back to the process-wide defaults in
// main, server fields to their flag defaults.
type Config struct {
	Addr             string `json:"addr" yaml:"addr" toml:"addr"`
	RunnerURL        string `json:"runner_url" yaml:"runner_url" toml:"runner_url"`
	DeviceType       string `json:"device_type" yaml:"device_type" toml:"device_type"`
	ModelType        string `json:"model_type" yaml:"model_type" toml:"model_type"`
	ModelRepository  string `json:"model_repository" yaml:"model_repository" toml:"model_repository"`
	ModelSafetensors string `json:"model_safetensors" yaml:"model_safetensors" toml:"model_safetensors"`
	UseTriton        bool   `json:"use_triton" yaml:"use_triton" toml:"use_triton"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/configs/localgptd.yaml
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
