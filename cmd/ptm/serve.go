package main

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/atalyaalon/patents-topic-modeling/internal/dashboard"
	"github.com/atalyaalon/patents-topic-modeling/internal/logging"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from PTM_ADDR)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and patent explorer",
	Long: `Serve the dashboard, the patent explorer and the JSON API.

Artifact sets are read from <workdir>/outputs_<dataset> when first requested.
Select a dataset per request with ?dataset=sample or ?dataset=full.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := mustLoadConfig()
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	cache, err := dashboard.NewArtifactCache(dashboard.DefaultCacheSize, func(prefix string) (*dashboard.Artifacts, error) {
		return dashboard.OpenArtifacts(prefix, filepath.Join(cfg.WorkDir, prefix))
	})
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer cache.Close()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: dashboard.NewServer(cache,
			dashboard.WithDatasetType(cfg.DatasetType),
			dashboard.WithTrendingTopics(cfg.TrendingTopics),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Infof("Serving %s artifacts on %s", cfg.DatasetType, cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			exitWithError(ExitError, "serving: %v", err)
		}
	case <-ctx.Done():
		logging.Infof("Shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			exitWithError(ExitError, "shutting down: %v", err)
		}
	}
	return nil
}
