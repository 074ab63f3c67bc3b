package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atalyaalon/patents-topic-modeling/internal/artifact"
	"github.com/atalyaalon/patents-topic-modeling/internal/patent"
	"github.com/atalyaalon/patents-topic-modeling/internal/storage"
)

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum number of patents to show")
}

var searchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Search result tables by title and abstract",
	Long: `Full-text search over the titles and abstracts of the last run.

Every term must match. Without terms, patents are listed in index order.

Examples:
  ptm search drone delivery
  ptm search -n 5 --human`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	dir := artifact.Dir(cfg.ArtifactsDir())
	if missing := dir.Missing([]string{artifact.KeyDatabase}); len(missing) > 0 {
		exitWithError(ExitNotFound, "result database not found at %s\n\nRun 'ptm run' or 'ptm download' first.", dir.Path(artifact.KeyDatabase))
	}
	db, err := storage.OpenDB(dir.Path(artifact.KeyDatabase))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	defer db.Close()

	var patents []patent.Patent
	if len(args) == 0 {
		patents, err = db.ListPatents(searchLimit)
	} else {
		patents, err = db.SearchText(strings.Join(args, " "), searchLimit)
	}
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		if len(patents) == 0 {
			fmt.Println("No patents found.")
			return nil
		}
		table := newTable("Patent", "Topic", "Title")
		for _, p := range patents {
			table.Append([]string{p.PatentNumber, fmt.Sprint(p.TopicID), truncateString(p.Title, 70)})
		}
		table.Render()
		return nil
	}
	return outputJSON(patents)
}
