package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLangchainProvider_EmbedBatch(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiPathEmbed {
			http.NotFound(w, r)
			return
		}
		requests++
		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v := make([]float32, DefaultDimensions)
		v[0] = float32(len(req.Input))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": [][]float32{v}})
	}))
	defer srv.Close()

	provider, err := NewLangchainProvider("", srv.URL)
	if err != nil {
		t.Fatalf("NewLangchainProvider failed: %v", err)
	}

	embs, err := provider.EmbedBatch(context.Background(), []string{"ab", "abcd"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(embs) != 2 {
		t.Fatalf("got %d embeddings, want 2", len(embs))
	}
	if embs[0].Vector[0] != 2 || embs[1].Vector[0] != 4 {
		t.Errorf("unexpected vectors: %v, %v", embs[0].Vector[:1], embs[1].Vector[:1])
	}
	if embs[0].Dimensions() != DefaultDimensions {
		t.Errorf("Dimensions() = %d, want %d", embs[0].Dimensions(), DefaultDimensions)
	}
	if requests != 2 {
		t.Errorf("server saw %d requests, want 2", requests)
	}
}

func TestLangchainProvider_ImplementsBatchProvider(t *testing.T) {
	var _ BatchProvider = (*LangchainProvider)(nil)
}
