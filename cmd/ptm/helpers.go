package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/atalyaalon/patents-topic-modeling/internal/config"
	"github.com/atalyaalon/patents-topic-modeling/internal/dashboard"
	"github.com/atalyaalon/patents-topic-modeling/internal/embedding"
	"github.com/atalyaalon/patents-topic-modeling/internal/hupd"
	"github.com/atalyaalon/patents-topic-modeling/internal/objstore"
	"github.com/atalyaalon/patents-topic-modeling/internal/pipeline"
	"github.com/atalyaalon/patents-topic-modeling/internal/vecindex"
)

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// mustLoadConfig loads the configuration or exits.
func mustLoadConfig() *config.Config {
	cfg, err := config.LoadFromEnvironment()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// exitCodeFor maps an error to the exit code of its category.
func exitCodeFor(err error) int {
	var fetchErr *hupd.FetchError
	switch {
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, hupd.ErrAuth):
		return ExitConfigError
	case errors.Is(err, objstore.ErrTransfer):
		return ExitTransferError
	case errors.Is(err, dashboard.ErrPatentNotFound), errors.Is(err, dashboard.ErrArtifactsNotFound),
		errors.Is(err, vecindex.ErrNotIndexed), errors.Is(err, vecindex.ErrIndexNotFound),
		errors.Is(err, hupd.ErrNotFound):
		return ExitNotFound
	case errors.As(err, &fetchErr), errors.Is(err, hupd.ErrBadArchive),
		errors.Is(err, pipeline.ErrNoPatents), errors.Is(err, vecindex.ErrDimensionMismatch),
		errors.Is(err, vecindex.ErrInvalidK), errors.Is(err, vecindex.ErrEmptyIndex):
		return ExitDataError
	default:
		return ExitError
	}
}

// newLoader creates the dataset loader for cfg.
func newLoader(cfg *config.Config, grantedOnly bool) *hupd.Loader {
	opts := []hupd.ClientOption{hupd.WithToken(cfg.HFToken)}
	if humanOutput {
		opts = append(opts, hupd.WithProgress(downloadProgress))
	}
	return hupd.NewLoader(hupd.NewClient(opts...), cfg.CacheDir(), hupd.WithGrantedOnly(grantedOnly))
}

// mustProvider creates the configured embedding provider, checking that an
// Ollama server is reachable and has the model.
func mustProvider(ctx context.Context, cfg *config.Config) embedding.Provider {
	provider, err := embedding.NewProvider(cfg.EmbeddingProvider, cfg.EmbeddingModel, cfg.OllamaURL)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if op, ok := provider.(*embedding.OllamaProvider); ok {
		if err := op.IsAvailable(ctx); err != nil {
			exitWithError(ExitDataError, "Ollama is not running: %v\n\nStart Ollama with 'ollama serve' or set OLLAMA_URL.", err)
		}
		hasModel, err := op.HasModel(ctx)
		if err != nil {
			exitWithError(ExitError, "checking model availability: %v", err)
		}
		if !hasModel {
			exitWithError(ExitDataError, "Embedding model '%s' not found\n\nRun 'ollama pull %s' to download it.", op.ModelName(), op.ModelName())
		}
	}
	return provider
}

// newStore creates the configured object store.
func newStore(ctx context.Context, cfg *config.Config) (objstore.Store, error) {
	return objstore.New(ctx, objstore.Options{
		Backend: cfg.ObjectStore,
		Bucket:  cfg.S3Bucket,
		Region:  cfg.AWSRegion,
		Root:    cfg.ObjectStoreRoot,
	})
}

// mustParseSplit parses a --split flag or exits.
func mustParseSplit(s string) hupd.Split {
	split, err := hupd.ParseSplit(s)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return split
}
