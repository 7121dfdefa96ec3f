package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"

	"github.com/grabzilla/grabzilla/internal/download"
)

// Environment variable overriding the default config path
const configPathEnv = "GRABZILLA_CONFIG"

type Config struct {
	Paths     Paths     `yaml:"paths"`
	GrabZilla GrabZilla `yaml:"grabzilla"`
	Downloads Downloads `yaml:"downloads"`
}

type Paths struct {
	DownloadDir string `yaml:"download_dir"`
	Extractor   string `yaml:"extractor"`
	Transcoder  string `yaml:"transcoder"`
	Prober      string `yaml:"prober"`
}

type GrabZilla struct {
	LogLevel logrus.Level `yaml:"log_level"`
}

type Downloads struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// New loads the configuration from GRABZILLA_CONFIG or the default path. A
// missing file is not an error; defaults apply.
func New() (*Config, error) {
	path := defaultConfigPath()
	if customPath, ok := os.LookupEnv(configPathEnv); ok {
		path = customPath
	}

	config := defaults()

	rawConfig, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("%w: %w (%w)", ErrConfiguration, ErrCantReadConfigFile, err)
	}

	if err := yaml.Unmarshal(rawConfig, config); err != nil {
		return nil, fmt.Errorf("%w: %w (%w)", ErrConfiguration, ErrCantParseConfigFile, err)
	}

	config.normalize()
	return config, nil
}

func defaults() *Config {
	return &Config{
		GrabZilla: GrabZilla{LogLevel: logrus.InfoLevel},
		Downloads: Downloads{MaxConcurrent: download.DefaultMaxConcurrent},
	}
}

// normalize clamps values the YAML may have pushed out of range
func (c *Config) normalize() {
	if c.Downloads.MaxConcurrent < download.MinConcurrent {
		c.Downloads.MaxConcurrent = download.MinConcurrent
	}
	if c.Downloads.MaxConcurrent > download.MaxConcurrent {
		c.Downloads.MaxConcurrent = download.MaxConcurrent
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/grabzilla.yaml"
	}
	return filepath.Join(home, ".config", "grabzilla", "config.yaml")
}
