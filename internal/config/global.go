package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "ptm"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// FileConfig is the optional ~/.config/ptm/config.yml.
// Every field may be overridden by its environment variable.
type FileConfig struct {
	S3Bucket          string  `yaml:"s3_bucket,omitempty"`
	DatasetType       string  `yaml:"dataset_type,omitempty"`
	UploadEnabled     *bool   `yaml:"upload_enabled,omitempty"`
	HFToken           string  `yaml:"hf_token,omitempty"`
	ObjectStore       string  `yaml:"object_store,omitempty"`
	ObjectStoreRoot   string  `yaml:"object_store_root,omitempty"`
	AWSRegion         string  `yaml:"aws_region,omitempty"`
	WorkDir           string  `yaml:"workdir,omitempty"`
	EmbeddingProvider string  `yaml:"embedding_provider,omitempty"`
	EmbeddingModel    string  `yaml:"embedding_model,omitempty"`
	OllamaURL         string  `yaml:"ollama_url,omitempty"`
	Topics            int     `yaml:"topics,omitempty"`
	Metric            string  `yaml:"metric,omitempty"`
	Addr              string  `yaml:"addr,omitempty"`
	TrendingTopics    [][]int `yaml:"trending_topics,omitempty"`
}

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/ptm/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadFileConfig reads a YAML config file.
// Returns an empty config (not an error) if path is empty or the file doesn't exist.
func LoadFileConfig(path string) (*FileConfig, error) {
	if path == "" {
		return &FileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	fc.WorkDir = ExpandPath(fc.WorkDir)
	fc.ObjectStoreRoot = ExpandPath(fc.ObjectStoreRoot)
	return &fc, nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
