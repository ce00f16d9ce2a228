package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Classifier struct {
		Endpoint string `yaml:"endpoint"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"classifier"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Database.Path == "" {
		config.Database.Path = "./data/conversations.db"
	}

	// Expand environment variables in secrets
	config.Classifier.APIKey = os.ExpandEnv(config.Classifier.APIKey)
	config.Classifier.Endpoint = os.ExpandEnv(config.Classifier.Endpoint)

	if config.Classifier.Endpoint == "" {
		return nil, fmt.Errorf("classifier endpoint is required")
	}

	return config, nil
}
