package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atalyaalon/patents-topic-modeling/internal/objstore"
	"github.com/atalyaalon/patents-topic-modeling/internal/pipeline"
	"github.com/atalyaalon/patents-topic-modeling/internal/topicmodel"
	"github.com/atalyaalon/patents-topic-modeling/internal/vecindex"
)

var (
	runSplit      string
	runNumTopics  int
	runIterations int
	runBatchSize  int
	runMapPoints  int
	runNoUpload   bool
	runNoProgress bool
	runAllRecords bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runSplit, "split", "train", "Dataset split: train, validation or all")
	runCmd.Flags().IntVar(&runNumTopics, "topics", 0, "Number of topics (default from PTM_TOPICS)")
	runCmd.Flags().IntVar(&runIterations, "iterations", topicmodel.DefaultIterations, "Topic model training iterations")
	runCmd.Flags().IntVar(&runBatchSize, "batch-size", 32, "Texts per embedding request")
	runCmd.Flags().IntVar(&runMapPoints, "map-points", topicmodel.DefaultMapPoints, "Maximum patents on the topic map")
	runCmd.Flags().BoolVar(&runNoUpload, "no-upload", false, "Skip the upload even if UPLOAD_ENABLED is set")
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "Suppress progress output")
	runCmd.Flags().BoolVar(&runAllRecords, "all-records", false, "Keep applications without a patent number")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	Long: `Run every pipeline stage: load, embed, topics, index, write and upload.

Artifacts are written to <workdir>/outputs_<dataset>. They are uploaded to
the object store under the same prefix when UPLOAD_ENABLED is true.

Only granted patents are modelled unless --all-records is given; the
explorer looks patents up by patent number.

Topic IDs are not reproducible: every run trains a new topic model.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := mustLoadConfig()
	split := mustParseSplit(runSplit)
	if runNumTopics > 0 {
		cfg.Topics = runNumTopics
	}
	metric, err := vecindex.ParseMetric(cfg.Metric)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	provider := mustProvider(ctx, cfg)

	opts := []pipeline.Option{
		pipeline.WithMetric(metric),
		pipeline.WithBatchSize(runBatchSize),
		pipeline.WithMapPoints(runMapPoints),
		pipeline.WithTopicOptions(topicmodel.Options{Topics: cfg.Topics, Iterations: runIterations}),
	}
	var store objstore.Store
	if cfg.UploadEnabled && !runNoUpload {
		store, err = newStore(ctx, cfg)
		if err != nil {
			exitWithError(ExitConfigError, "creating object store: %v", err)
		}
		opts = append(opts, pipeline.WithUpload(store, cfg.Prefix()))
	}
	if humanOutput && !runNoProgress {
		opts = append(opts, pipeline.WithProgress(newStageProgress()))
	}

	p := pipeline.New(newLoader(cfg, !runAllRecords), provider, cfg.ArtifactsDir(), cfg.DatasetType, split, opts...)
	summary, err := p.Run(ctx)
	if err != nil {
		exitWithError(exitCodeFor(err), "running pipeline: %v", err)
	}

	if humanOutput {
		fmt.Println()
		printSuccess("Run %s complete", summary.RunID)
		fmt.Printf("  Patents: %s (%s without a dominant topic)\n", formatCount(summary.Patents), formatCount(summary.Outliers))
		fmt.Printf("  Topics: %d\n", summary.Topics)
		fmt.Printf("  Dimensions: %d\n", summary.Dimensions)
		fmt.Printf("  Artifacts: %s\n", summary.Dir)
		if summary.Uploaded {
			fmt.Printf("  Uploaded to: %s/%s\n", store.Location(), cfg.Prefix())
		}
		fmt.Printf("  Time elapsed: %s\n", formatDuration(summary.Duration))
		fmt.Println()
		table := newTable("Stage", "Duration")
		for _, st := range summary.Stages {
			table.Append([]string{string(st.Stage), formatDuration(st.Duration)})
		}
		table.Render()
	} else {
		outputJSON(summary)
	}
	return nil
}
