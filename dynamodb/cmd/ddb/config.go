package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFilename = "ddb.yaml"

// Config holds defaults for every ddb command.
// Loaded from ddb.yaml if present; flags override it.
type Config struct {
	// Schema is a glob pattern for model schema files. When empty, ddb
	// searches the working tree for models_dynamodb.yaml files.
	Schema string `yaml:"schema"`

	// Region and Profile select the AWS configuration.
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`

	// Endpoint points the client at DynamoDB Local or another compatible service.
	Endpoint string `yaml:"endpoint"`

	// DataDir is where the local store keeps its catalog with --local.
	DataDir string `yaml:"dataDir"`

	// TablePrefix is prepended to every compiled table name.
	TablePrefix string `yaml:"tablePrefix"`

	// Port is the HTTP port for the ui command.
	Port int `yaml:"port"`
}

func defaultConfig() Config {
	return Config{
		DataDir: ".ddb",
		Port:    3070,
	}
}

// LoadConfig searches for ddb.yaml starting from dir and walking up to the
// filesystem root. It returns the defaults when no file is found.
func LoadConfig(dir string) (Config, error) {
	cfg := defaultConfig()

	configPath := findConfigFile(dir)
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", configPath, err)
	}

	// Relative paths are relative to the config file, not the working directory.
	base := filepath.Dir(configPath)
	if cfg.Schema != "" && !filepath.IsAbs(cfg.Schema) {
		cfg.Schema = filepath.Join(base, cfg.Schema)
	}
	if cfg.DataDir != "" && !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(base, cfg.DataDir)
	}
	return cfg, nil
}

// findConfigFile searches for ddb.yaml walking up from dir.
func findConfigFile(dir string) string {
	for {
		path := filepath.Join(dir, configFilename)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}
