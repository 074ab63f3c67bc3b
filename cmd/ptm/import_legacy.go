package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atalyaalon/patents-topic-modeling/internal/artifact"
	"github.com/atalyaalon/patents-topic-modeling/internal/embedding"
)

var legacyDims int

func init() {
	rootCmd.AddCommand(importLegacyCmd)

	importLegacyCmd.Flags().IntVar(&legacyDims, "dims", embedding.DefaultDimensions, "Embedding dimensions for flat .npy files")
}

// ImportLegacyResult is the response for the import-legacy command.
type ImportLegacyResult struct {
	Patents    int    `json:"patents"`
	Dimensions int    `json:"dimensions"`
	Metric     string `json:"metric"`
	Path       string `json:"path"`
}

var importLegacyCmd = &cobra.Command{
	Use:   "import-legacy <dir>",
	Short: "Build a similarity index from notebook outputs",
	Long: `Build a similarity index from an embeddings_normalized.npy and a
patent_to_idx.pkl written by the original notebooks.

The index is keyed by patent number and written to the artifacts directory.
The result database must come from a pipeline run or a download.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportLegacy,
}

func runImportLegacy(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	src := artifact.Dir(args[0])
	if missing := src.Missing([]string{artifact.KeyEmbeddings, artifact.KeyPatentToIdx}); len(missing) > 0 {
		exitWithError(ExitNotFound, "legacy files missing from %s: %v", src, missing)
	}

	idx, err := artifact.ImportLegacy(src, legacyDims)
	if err != nil {
		exitWithError(ExitDataError, "importing legacy artifacts: %v", err)
	}

	path := artifact.Dir(cfg.ArtifactsDir()).Path(artifact.KeyIndex)
	if err := idx.Save(path); err != nil {
		exitWithError(ExitError, "saving index: %v", err)
	}

	result := ImportLegacyResult{
		Patents:    idx.Len(),
		Dimensions: idx.Dimensions(),
		Metric:     string(idx.Metric()),
		Path:       path,
	}
	if humanOutput {
		printSuccess("Imported %s patents (%d dimensions)", formatCount(result.Patents), result.Dimensions)
		fmt.Printf("  Index: %s (%s)\n", path, fileSize(path))
	} else {
		outputJSON(result)
	}
	return nil
}
