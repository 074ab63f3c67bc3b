package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loadSplit      string
	loadAllRecords bool
)

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&loadSplit, "split", "train", "Dataset split: train, validation or all")
	loadCmd.Flags().BoolVar(&loadAllRecords, "all-records", false, "Keep applications without a patent number")
}

// LoadResult is the response for the load command.
type LoadResult struct {
	DatasetType string `json:"dataset_type"`
	Split       string `json:"split"`
	Patents     int    `json:"patents"`
	Granted     int    `json:"granted"`
	FirstFiled  string `json:"first_filed,omitempty"`
	LastFiled   string `json:"last_filed,omitempty"`
	CacheDir    string `json:"cache_dir"`
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Download and cache a dataset split",
	Long: `Download the HUPD archives of a split and cache the parsed records.

Archives are only downloaded on a cache miss. The full dataset needs
several GB of disk and an HF_TOKEN for authenticated downloads.`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := mustLoadConfig()
	split := mustParseSplit(loadSplit)

	patents, err := newLoader(cfg, !loadAllRecords).Load(ctx, split, cfg.DatasetType)
	if err != nil {
		exitWithError(exitCodeFor(err), "loading dataset: %v", err)
	}

	result := LoadResult{
		DatasetType: cfg.DatasetType,
		Split:       string(split),
		Patents:     len(patents),
		CacheDir:    cfg.CacheDir(),
	}
	for _, p := range patents {
		if p.Granted() {
			result.Granted++
		}
	}
	if len(patents) > 0 {
		result.FirstFiled = patents[0].FilingDate.Format("2006-01-02")
		result.LastFiled = patents[len(patents)-1].FilingDate.Format("2006-01-02")
	}

	if humanOutput {
		printSuccess("Loaded %s patents (%s granted) from %s/%s", formatCount(result.Patents), formatCount(result.Granted), result.DatasetType, result.Split)
		if result.FirstFiled != "" {
			fmt.Printf("  Filed: %s to %s\n", result.FirstFiled, result.LastFiled)
		}
		fmt.Printf("  Cache: %s\n", result.CacheDir)
	} else {
		outputJSON(result)
	}
	return nil
}
