package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atalyaalon/patents-topic-modeling/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	*config.Config
	HFTokenSet   bool   `json:"hf_token_set"`
	Prefix       string `json:"prefix"`
	ArtifactsDir string `json:"artifacts_dir"`
	CacheDir     string `json:"cache_dir"`
	ConfigFile   string `json:"config_file"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Show the configuration resolved from .env, the config file and the
environment. The Hugging Face token is never printed.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if humanOutput {
			fmt.Println(config.GlobalConfigPath())
		} else {
			outputJSON(StatusResponse{Status: "ok", Path: config.GlobalConfigPath()})
		}
		return nil
	},
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	resp := ConfigResponse{
		Config:       cfg,
		HFTokenSet:   cfg.HFToken != "",
		Prefix:       cfg.Prefix(),
		ArtifactsDir: cfg.ArtifactsDir(),
		CacheDir:     cfg.CacheDir(),
		ConfigFile:   config.GlobalConfigPath(),
	}

	if !humanOutput {
		outputJSON(resp)
		return nil
	}

	table := newTable("Setting", "Value")
	rows := [][]string{
		{"dataset type", cfg.DatasetType},
		{"object store", cfg.ObjectStore},
		{"bucket", cfg.S3Bucket},
		{"upload enabled", fmt.Sprint(cfg.UploadEnabled)},
		{"hf token", map[bool]string{true: "set", false: "not set"}[resp.HFTokenSet]},
		{"embedding provider", cfg.EmbeddingProvider},
		{"embedding model", cfg.EmbeddingModel},
		{"topics", fmt.Sprint(cfg.Topics)},
		{"metric", cfg.Metric},
		{"listen address", cfg.Addr},
		{"artifacts", resp.ArtifactsDir},
		{"cache", resp.CacheDir},
		{"config file", resp.ConfigFile},
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	return nil
}
