package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atalyaalon/patents-topic-modeling/internal/dashboard"
)

var similarK int

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().IntVarP(&similarK, "neighbors", "k", dashboard.DefaultK, "Number of similar patents")
}

// SimilarResponse is the response for the similar command.
type SimilarResponse struct {
	Patent     string              `json:"patent"`
	Title      string              `json:"title"`
	Link       string              `json:"link"`
	TopicWords []string            `json:"topic_words"`
	Similar    []dashboard.Similar `json:"similar"`
	Total      int                 `json:"total"`
}

var similarCmd = &cobra.Command{
	Use:   "similar <patent-number>",
	Short: "Find patents similar to a granted patent",
	Long: `Find the patents nearest to a granted patent in the similarity index.

The patent itself is excluded from the results. Requires the artifacts of a
pipeline run ('ptm run' or 'ptm download').`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func runSimilar(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	a, err := dashboard.OpenArtifacts(cfg.Prefix(), cfg.ArtifactsDir())
	if err != nil {
		exitWithError(exitCodeFor(err), "loading artifacts: %v\n\nRun 'ptm run' or 'ptm download' first.", err)
	}
	defer a.Close()

	ex, err := a.Explore(args[0], similarK)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	if humanOutput {
		fmt.Printf("Patents similar to: %s\n", args[0])
		fmt.Printf("%q\n", truncateString(ex.Patent.Title, DetailTitleMaxLen))
		fmt.Printf("%s\n", ex.Link)
		if len(ex.TopicWords) > 0 {
			fmt.Printf("Topic: %v\n\n", ex.TopicWords)
		} else {
			fmt.Printf("%s\n\n", dashboard.MsgNoTopic)
		}
		table := newTable("#", "Score", "Patent", "Title")
		for i, s := range ex.Similar {
			number := s.PatentNumber
			if number == "" {
				number = s.ID
			}
			table.Append([]string{fmt.Sprint(i + 1), fmt.Sprintf("%.4f", s.Score), number, truncateString(s.Title, TableTitleMaxLen)})
		}
		table.Render()
	} else {
		outputJSON(SimilarResponse{
			Patent:     args[0],
			Title:      ex.Patent.Title,
			Link:       ex.Link,
			TopicWords: ex.TopicWords,
			Similar:    ex.Similar,
			Total:      len(ex.Similar),
		})
	}
	return nil
}
