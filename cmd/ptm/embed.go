package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/atalyaalon/patents-topic-modeling/internal/artifact"
	"github.com/atalyaalon/patents-topic-modeling/internal/pipeline"
)

var (
	embedSplit     string
	embedBatchSize int
)

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().StringVar(&embedSplit, "split", "train", "Dataset split: train, validation or all")
	embedCmd.Flags().IntVar(&embedBatchSize, "batch-size", 32, "Texts per embedding request")
}

// EmbedResult is the response for the embed command.
type EmbedResult struct {
	Patents         int     `json:"patents"`
	Dimensions      int     `json:"dimensions"`
	Model           string  `json:"model"`
	Path            string  `json:"path"`
	DurationSeconds float64 `json:"duration_seconds"`
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Load a split and write its normalized embeddings",
	Long: `Load a dataset split and embed every patent's title and abstract.

The L2-normalized vectors are written to embeddings_normalized.npy in the
artifacts directory, one row per patent in load order.`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	start := time.Now()

	cfg := mustLoadConfig()
	split := mustParseSplit(embedSplit)
	provider := mustProvider(ctx, cfg)

	opts := []pipeline.Option{pipeline.WithBatchSize(embedBatchSize)}
	if humanOutput {
		opts = append(opts, pipeline.WithProgress(newStageProgress()))
	}
	p := pipeline.New(newLoader(cfg, true), provider, cfg.ArtifactsDir(), cfg.DatasetType, split, opts...)

	patents, err := p.Load(ctx)
	if err != nil {
		exitWithError(exitCodeFor(err), "loading dataset: %v", err)
	}
	vectors, err := p.Embed(ctx, patents)
	if err != nil {
		exitWithError(ExitDataError, "embedding patents: %v", err)
	}

	if err := os.MkdirAll(cfg.ArtifactsDir(), 0755); err != nil {
		exitWithError(ExitError, "creating artifacts directory: %v", err)
	}
	path := artifact.Dir(cfg.ArtifactsDir()).Path(artifact.KeyEmbeddings)
	if err := artifact.WriteEmbeddings(path, vectors); err != nil {
		exitWithError(ExitError, "writing embeddings: %v", err)
	}

	result := EmbedResult{
		Patents:         len(vectors),
		Dimensions:      provider.Dimensions(),
		Model:           provider.ModelName(),
		Path:            path,
		DurationSeconds: time.Since(start).Seconds(),
	}
	if humanOutput {
		printSuccess("Embedded %s patents with %s (%d dimensions)", formatCount(result.Patents), result.Model, result.Dimensions)
		fmt.Printf("  Written: %s (%s)\n", path, fileSize(path))
		fmt.Printf("  Time elapsed: %s\n", formatDuration(time.Since(start)))
	} else {
		outputJSON(result)
	}
	return nil
}
