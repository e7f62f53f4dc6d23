package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// config holds the CLI settings, loaded from a YAML config file and
// overridden by SIMFIL_* environment variables.
type config struct {
	Prompt  string `koanf:"prompt"`
	History string `koanf:"history"`
	Limit   int    `koanf:"limit"`
}

func defaultConfig() *config {
	return &config{
		Prompt:  "simfil> ",
		History: defaultHistoryPath(),
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".simfil_history")
}

// loadConfig merges the config file (explicit path, or the first one
// found) and the environment on top of the defaults already in cfg.
func loadConfig(cfg *config, path string) error {
	k := koanf.New(".")

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("SIMFIL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SIMFIL_"))
	}), nil); err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}

	return k.Unmarshal("", cfg)
}

func findConfigFile() string {
	candidates := []string{"simfil.yaml", "simfil.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "simfil", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
