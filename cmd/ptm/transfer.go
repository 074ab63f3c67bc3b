package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/atalyaalon/patents-topic-modeling/internal/artifact"
	"github.com/atalyaalon/patents-topic-modeling/internal/objstore"
)

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
}

// TransferResult is the response for the upload and download commands.
type TransferResult struct {
	Status   string   `json:"status"`
	Location string   `json:"location"`
	Prefix   string   `json:"prefix"`
	Dir      string   `json:"dir"`
	Keys     []string `json:"keys"`
	Failed   int      `json:"failed,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload the artifacts to the object store",
	Long: `Upload the artifacts of the last run to the object store under
outputs_<dataset>/. Failed files do not stop the others; partial uploads are
not rolled back.`,
	Args: cobra.NoArgs,
	RunE: runUpload,
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the artifacts from the object store",
	Long: `Download an artifact set from the object store into the local
artifacts directory, e.g. before 'ptm serve' on a machine that did not run
the pipeline.`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := mustLoadConfig()
	d := artifact.Dir(cfg.ArtifactsDir())
	if missing := d.Missing(artifact.Keys); len(missing) > 0 {
		exitWithError(ExitNotFound, "artifacts missing from %s: %v\n\nRun 'ptm run' first.", d, missing)
	}
	store, err := newStore(ctx, cfg)
	if err != nil {
		exitWithError(ExitConfigError, "creating object store: %v", err)
	}

	err = objstore.Mirror(ctx, store, cfg.Prefix(), d.Paths(artifact.Keys))
	reportTransfer(store, cfg.Prefix(), string(d), err)
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := mustLoadConfig()
	store, err := newStore(ctx, cfg)
	if err != nil {
		exitWithError(ExitConfigError, "creating object store: %v", err)
	}

	err = objstore.Fetch(ctx, store, cfg.Prefix(), artifact.Keys, cfg.ArtifactsDir())
	reportTransfer(store, cfg.Prefix(), cfg.ArtifactsDir(), err)
	return nil
}

// reportTransfer prints the outcome of a transfer and exits on failure.
func reportTransfer(store objstore.Store, prefix, dir string, err error) {
	result := TransferResult{
		Status:   "complete",
		Location: store.Location(),
		Prefix:   prefix,
		Dir:      dir,
		Keys:     artifact.Keys,
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		result.Status = "failed"
		result.Failed = len(merr.Errors)
		for _, e := range merr.Errors {
			result.Errors = append(result.Errors, e.Error())
		}
	} else if err != nil {
		result.Status = "failed"
		result.Errors = []string{err.Error()}
	}

	if humanOutput {
		if err != nil {
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", e)
			}
			exitWithError(ExitTransferError, "%d of %d files failed", max(result.Failed, 1), len(artifact.Keys))
		}
		printSuccess("Transferred %d files between %s and %s/%s", len(artifact.Keys), dir, store.Location(), prefix)
		return
	}
	outputJSON(result)
	if err != nil {
		os.Exit(ExitTransferError)
	}
}
