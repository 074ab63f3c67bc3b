// Package config loads pipeline and dashboard settings from the environment,
// an optional .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/atalyaalon/patents-topic-modeling/internal/artifact"
)

// Environment variable names.
const (
	EnvS3Bucket          = "S3_BUCKET"
	EnvDatasetType       = "DATASET_TYPE"
	EnvUploadEnabled     = "UPLOAD_ENABLED"
	EnvHFToken           = "HF_TOKEN"
	EnvObjectStore       = "OBJECT_STORE"
	EnvObjectStoreRoot   = "OBJECT_STORE_ROOT"
	EnvAWSRegion         = "AWS_REGION"
	EnvWorkDir           = "PTM_WORKDIR"
	EnvEmbeddingProvider = "EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "EMBEDDING_MODEL"
	EnvOllamaURL         = "OLLAMA_URL"
	EnvTopics            = "PTM_TOPICS"
	EnvMetric            = "PTM_METRIC"
	EnvAddr              = "PTM_ADDR"
	EnvTrendingTopics    = "PTM_TRENDING_TOPICS"
)

// Dataset types.
const (
	DatasetSample = "sample"
	DatasetFull   = "full"
)

// Object store backends.
const (
	StoreS3   = "s3"
	StoreGCS  = "gcs"
	StoreFile = "file"
)

// Defaults.
const (
	DefaultDatasetType = DatasetSample
	DefaultObjectStore = StoreS3
	DefaultWorkDir     = "."
	DefaultTopics      = 20
	DefaultMetric      = "cosine"
	DefaultAddr        = ":8501"
	CacheDirName       = "hupd_cache"
)

// DefaultTrendingTopics are the topic groups charted on the dashboard.
var DefaultTrendingTopics = [][]int{{25}, {252, 101, 124, 187}}

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the resolved settings.
type Config struct {
	S3Bucket          string  `json:"s3_bucket"`
	DatasetType       string  `json:"dataset_type"`
	UploadEnabled     bool    `json:"upload_enabled"`
	HFToken           string  `json:"-"`
	ObjectStore       string  `json:"object_store"`
	ObjectStoreRoot   string  `json:"object_store_root,omitempty"`
	AWSRegion         string  `json:"aws_region,omitempty"`
	WorkDir           string  `json:"workdir"`
	EmbeddingProvider string  `json:"embedding_provider,omitempty"`
	EmbeddingModel    string  `json:"embedding_model,omitempty"`
	OllamaURL         string  `json:"ollama_url,omitempty"`
	Topics            int     `json:"topics"`
	Metric            string  `json:"metric"`
	Addr              string  `json:"addr"`
	TrendingTopics    [][]int `json:"trending_topics"`
}

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadFromEnvironment loads .env from the working directory (if present),
// the global YAML file and the process environment.
func LoadFromEnvironment() (*Config, error) {
	_ = godotenv.Load()

	fc, err := LoadFileConfig(GlobalConfigPath())
	if err != nil {
		return nil, err
	}
	return Load(fc, os.LookupEnv)
}

// Load merges file settings with environment values and validates the result.
// Environment values win.
func Load(fc *FileConfig, lookup LookupFunc) (*Config, error) {
	if fc == nil {
		fc = &FileConfig{}
	}

	cfg := &Config{
		S3Bucket:          fc.S3Bucket,
		DatasetType:       fc.DatasetType,
		HFToken:           fc.HFToken,
		ObjectStore:       fc.ObjectStore,
		ObjectStoreRoot:   fc.ObjectStoreRoot,
		AWSRegion:         fc.AWSRegion,
		WorkDir:           fc.WorkDir,
		EmbeddingProvider: fc.EmbeddingProvider,
		EmbeddingModel:    fc.EmbeddingModel,
		OllamaURL:         fc.OllamaURL,
		Topics:            fc.Topics,
		Metric:            fc.Metric,
		Addr:              fc.Addr,
		TrendingTopics:    fc.TrendingTopics,
	}
	if fc.UploadEnabled != nil {
		cfg.UploadEnabled = *fc.UploadEnabled
	}

	strs := map[string]*string{
		EnvS3Bucket:          &cfg.S3Bucket,
		EnvDatasetType:       &cfg.DatasetType,
		EnvHFToken:           &cfg.HFToken,
		EnvObjectStore:       &cfg.ObjectStore,
		EnvObjectStoreRoot:   &cfg.ObjectStoreRoot,
		EnvAWSRegion:         &cfg.AWSRegion,
		EnvWorkDir:           &cfg.WorkDir,
		EnvEmbeddingProvider: &cfg.EmbeddingProvider,
		EnvEmbeddingModel:    &cfg.EmbeddingModel,
		EnvOllamaURL:         &cfg.OllamaURL,
		EnvMetric:            &cfg.Metric,
		EnvAddr:              &cfg.Addr,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvUploadEnabled); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvUploadEnabled, v)
		}
		cfg.UploadEnabled = b
	}
	if v, ok := lookup(EnvTopics); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvTopics, v)
		}
		cfg.Topics = n
	}
	if v, ok := lookup(EnvTrendingTopics); ok && v != "" {
		groups, err := ParseTopicGroups(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvTrendingTopics, err)
		}
		cfg.TrendingTopics = groups
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.DatasetType = strings.ToLower(c.DatasetType)
	c.ObjectStore = strings.ToLower(c.ObjectStore)
	if c.DatasetType == "" {
		c.DatasetType = DefaultDatasetType
	}
	if c.ObjectStore == "" {
		c.ObjectStore = DefaultObjectStore
	}
	if c.WorkDir == "" {
		c.WorkDir = DefaultWorkDir
	}
	if c.Topics == 0 {
		c.Topics = DefaultTopics
	}
	if c.Metric == "" {
		c.Metric = DefaultMetric
	}
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if len(c.TrendingTopics) == 0 {
		c.TrendingTopics = DefaultTrendingTopics
	}
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	switch c.DatasetType {
	case DatasetSample, DatasetFull:
	default:
		return fmt.Errorf("%w: unknown dataset type %q (want %s or %s)", ErrInvalidConfig, c.DatasetType, DatasetSample, DatasetFull)
	}

	switch c.ObjectStore {
	case StoreS3, StoreGCS:
		if c.UploadEnabled && c.S3Bucket == "" {
			return fmt.Errorf("%w: %s is required when uploads are enabled", ErrInvalidConfig, EnvS3Bucket)
		}
	case StoreFile:
		if c.UploadEnabled && c.ObjectStoreRoot == "" {
			return fmt.Errorf("%w: %s is required for the file store", ErrInvalidConfig, EnvObjectStoreRoot)
		}
	default:
		return fmt.Errorf("%w: unknown object store %q (want %s, %s or %s)", ErrInvalidConfig, c.ObjectStore, StoreS3, StoreGCS, StoreFile)
	}

	if c.Topics < 2 {
		return fmt.Errorf("%w: need at least 2 topics, got %d", ErrInvalidConfig, c.Topics)
	}

	switch c.Metric {
	case "l2", "cosine":
	default:
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidConfig, c.Metric)
	}

	return nil
}

// ParseTopicGroups parses "25;252,101,124,187" into [[25] [252 101 124 187]].
func ParseTopicGroups(s string) ([][]int, error) {
	var groups [][]int
	for _, g := range strings.Split(s, ";") {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		var ids []int
		for _, part := range strings.Split(g, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("bad topic id %q", part)
			}
			ids = append(ids, id)
		}
		groups = append(groups, ids)
	}
	return groups, nil
}

// Prefix returns the artifact prefix, e.g. "outputs_sample".
func (c *Config) Prefix() string {
	return artifact.Prefix(c.DatasetType)
}

// ArtifactsDir returns the local directory holding this dataset's artifacts.
func (c *Config) ArtifactsDir() string {
	return filepath.Join(c.WorkDir, c.Prefix())
}

// CacheDir returns the dataset download cache directory.
func (c *Config) CacheDir() string {
	return filepath.Join(c.WorkDir, CacheDirName)
}
