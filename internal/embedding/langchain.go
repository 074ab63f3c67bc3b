package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// LangchainProvider embeds through langchaingo's Ollama client.
type LangchainProvider struct {
	model      string
	dimensions int
	embedder   *embeddings.EmbedderImpl
}

// NewLangchainProvider creates a provider for model served at serverURL.
func NewLangchainProvider(model, serverURL string) (*LangchainProvider, error) {
	if model == "" {
		model = DefaultModel
	}
	if serverURL == "" {
		serverURL = DefaultOllamaURL
	}

	llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(serverURL))
	if err != nil {
		return nil, fmt.Errorf("initializing langchain ollama client: %w", err)
	}

	emb, err := embeddings.NewEmbedder(llm, embeddings.WithBatchSize(DefaultBatchSize))
	if err != nil {
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}

	return &LangchainProvider{
		model:      model,
		dimensions: DefaultDimensions,
		embedder:   emb,
	}, nil
}

// Embed generates an embedding for a single text.
func (p *LangchainProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	v, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return Embedding{}, err
	}
	return Embedding{Vector: v}, nil
}

// EmbedBatch embeds texts in input order.
func (p *LangchainProvider) EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error) {
	vs, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	embs := make([]Embedding, len(vs))
	for i, v := range vs {
		embs[i] = Embedding{Vector: v}
	}
	return embs, nil
}

// ModelName returns the name of the embedding model.
func (p *LangchainProvider) ModelName() string {
	return p.model
}

// Dimensions returns the expected vector dimensions.
func (p *LangchainProvider) Dimensions() int {
	return p.dimensions
}
