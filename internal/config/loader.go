package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound indicates no settings file was found in the standard search locations.
var ErrConfigNotFound = errors.New("configuration file not found")

// Load reads, expands, defaults and validates the settings file. When
// explicitPath is empty the standard locations are searched.
func Load(explicitPath string) (*Settings, error) {
	s, _, err := LoadWithPath(explicitPath)
	return s, err
}

// LoadWithPath is Load that also returns the resolved settings file path.
func LoadWithPath(explicitPath string) (*Settings, string, error) {
	var configPath string
	var err error

	if explicitPath != "" {
		configPath = explicitPath
		if _, err := os.Stat(configPath); err != nil {
			if os.IsNotExist(err) {
				return nil, "", fmt.Errorf("specified config file does not exist: %s", configPath)
			}
			return nil, "", fmt.Errorf("cannot access config file %s: %w", configPath, err)
		}
	} else {
		configPath, err = findConfigFile()
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrConfigNotFound, err)
		}
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open config file %s: %w", configPath, err)
	}
	defer file.Close()

	settings, err := loadFromFile(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	settings.applyEnvOverrides()
	settings.applyDefaults()
	if !filepath.IsAbs(settings.ModelsDir) {
		settings.ModelsDir = filepath.Join(filepath.Dir(configPath), settings.ModelsDir)
	}

	if err := settings.Validate(); err != nil {
		return nil, "", err
	}

	return settings, configPath, nil
}

// findConfigFile searches for the settings file in the expected locations
func findConfigFile() (string, error) {
	configNames := []string{"fieldgen.yaml", "fieldgen.yml", "fieldgen.json"}

	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		dir := filepath.Join(userConfigDir, "fieldgen")
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	userConfigPath := "~/.config/fieldgen/fieldgen.yaml"
	if userConfigDir != "" {
		userConfigPath = filepath.Join(userConfigDir, "fieldgen", "fieldgen.yaml")
	}
	return "", fmt.Errorf(`configuration file not found. Create one of:
  - ./fieldgen.yaml (current directory)
  - %s (user config directory)`, userConfigPath)
}

// loadFromFile reads and parses a settings file from any fs.File source.
func loadFromFile(file fs.File) (*Settings, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("error getting file info: %w", err)
	}

	return parseConfigData(data, stat.Name())
}

// parseConfigData parses settings based on the filename extension.
// Environment variables are expanded in the raw content before parsing,
// supporting both $VAR and ${VAR} syntax.
func parseConfigData(data []byte, filename string) (*Settings, error) {
	expandedData := os.ExpandEnv(string(data))

	addExpansionHint := func(parseErr error) error {
		if strings.Contains(string(data), "$") {
			return fmt.Errorf("%w (hint: environment variable expansion may have introduced invalid syntax if values contain special characters)", parseErr)
		}
		return parseErr
	}

	var settings Settings
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if err := json.Unmarshal([]byte(expandedData), &settings); err != nil {
			return nil, addExpansionHint(fmt.Errorf("error parsing JSON config: %w", err))
		}
	default:
		if err := yaml.Unmarshal([]byte(expandedData), &settings); err != nil {
			return nil, addExpansionHint(fmt.Errorf("error parsing YAML config: %w", err))
		}
	}
	return &settings, nil
}
