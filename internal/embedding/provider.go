package embedding

import (
	"context"
	"fmt"
)

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}

// BatchProvider is implemented by providers that can embed several texts per request.
type BatchProvider interface {
	Provider
	EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error)
}

// Provider names accepted by NewProvider.
const (
	ProviderOllama    = "ollama"
	ProviderLangchain = "langchain"
)

// DefaultBatchSize is the number of texts per batch request.
const DefaultBatchSize = 32

// ProgressFunc is called after each batch with the number of texts embedded so far.
type ProgressFunc func(done, total int)

// NewProvider creates the named provider. Empty name, model or url select defaults.
func NewProvider(name, model, url string) (Provider, error) {
	switch name {
	case "", ProviderOllama:
		opts := []OllamaOption{}
		if model != "" {
			opts = append(opts, WithModel(model))
		}
		if url != "" {
			opts = append(opts, WithBaseURL(url))
		}
		return NewOllamaProvider(opts...), nil
	case ProviderLangchain:
		return NewLangchainProvider(model, url)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (want %s or %s)", name, ProviderOllama, ProviderLangchain)
	}
}

// EmbedAll embeds texts in order and returns L2-normalized vectors.
// Row i of the result belongs to texts[i]. Any failure aborts the whole run.
func EmbedAll(ctx context.Context, p Provider, texts []string, batchSize int, progress ProgressFunc) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	vectors := make([][]float32, 0, len(texts))

	bp, batched := p.(BatchProvider)
	for start := 0; start < len(texts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+batchSize, len(texts))

		chunk := make([]string, end-start)
		for i, t := range texts[start:end] {
			chunk[i] = Truncate(t)
		}

		var embs []Embedding
		if batched {
			var err error
			embs, err = bp.EmbedBatch(ctx, chunk)
			if err != nil {
				return nil, fmt.Errorf("embedding texts %d-%d: %w", start, end-1, err)
			}
			if len(embs) != len(chunk) {
				return nil, fmt.Errorf("embedding texts %d-%d: got %d vectors for %d texts", start, end-1, len(embs), len(chunk))
			}
		} else {
			embs = make([]Embedding, len(chunk))
			for i, t := range chunk {
				emb, err := p.Embed(ctx, t)
				if err != nil {
					return nil, fmt.Errorf("embedding text %d: %w", start+i, err)
				}
				embs[i] = emb
			}
		}

		for i, emb := range embs {
			if emb.Dimensions() != p.Dimensions() {
				return nil, fmt.Errorf("embedding text %d: got %d dimensions, want %d", start+i, emb.Dimensions(), p.Dimensions())
			}
			vectors = append(vectors, Normalize(emb.Vector))
		}

		if progress != nil {
			progress(end, len(texts))
		}
	}

	return vectors, nil
}
