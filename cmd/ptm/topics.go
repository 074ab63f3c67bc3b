package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atalyaalon/patents-topic-modeling/internal/artifact"
	"github.com/atalyaalon/patents-topic-modeling/internal/storage"
)

var (
	topicsTop    int
	topicsByYear []int
)

func init() {
	rootCmd.AddCommand(topicsCmd)

	topicsCmd.Flags().IntVar(&topicsTop, "top", 0, "Show only the N largest topics, excluding outliers")
	topicsCmd.Flags().IntSliceVar(&topicsByYear, "by-year", nil, "Show filing-year counts for these topic IDs")
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List topics of the last run",
	Long: `List the topics of the last pipeline run with their sizes.

Topic -1 collects patents without a dominant topic. Topic IDs are specific to
the run that produced them.`,
	Args: cobra.NoArgs,
	RunE: runTopics,
}

func runTopics(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	path := artifact.Dir(cfg.ArtifactsDir()).Path(artifact.KeyDatabase)
	if missing := artifact.Dir(cfg.ArtifactsDir()).Missing([]string{artifact.KeyDatabase}); len(missing) > 0 {
		exitWithError(ExitNotFound, "result database not found at %s\n\nRun 'ptm run' or 'ptm download' first.", path)
	}
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	defer db.Close()

	if len(topicsByYear) > 0 {
		counts, err := db.TopicsByYear(topicsByYear...)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			table := newTable("Topic", "Year", "Patents")
			for _, c := range counts {
				table.Append([]string{c.TopicWords, fmt.Sprint(c.Year), formatCount(c.Count)})
			}
			table.Render()
		} else {
			outputJSON(counts)
		}
		return nil
	}

	var counts []storage.TopicCount
	if topicsTop > 0 {
		counts, err = db.TopTopics(topicsTop)
	} else {
		counts, err = db.TopicCounts()
	}
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		table := newTable("ID", "Patents", "Topic")
		for _, c := range counts {
			table.Append([]string{fmt.Sprint(c.TopicID), formatCount(c.Count), c.TopicWords})
		}
		table.Render()
	} else {
		outputJSON(counts)
	}
	return nil
}
