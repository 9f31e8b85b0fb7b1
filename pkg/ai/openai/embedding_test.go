package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newTestServer(t *testing.T, seen *[]embeddingRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		*seen = append(*seen, req)

		// answer in reverse order to exercise index mapping
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(len(req.Input[i])), 1, 2},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]any{"prompt_tokens": 5, "total_tokens": 5},
		})
	}))
}

func TestGenerateEmbeddings_BatchAndOrder(t *testing.T) {
	var seen []embeddingRequest
	srv := newTestServer(t, &seen)
	defer srv.Close()

	c := NewEmbeddingClient(NewEmbeddingClientParams{
		Model:      "test-embed",
		BaseURL:    srv.URL,
		APIKey:     "test",
		Dimensions: 4,
	})

	out, err := c.GenerateEmbeddings(context.Background(), [][]byte{
		[]byte("photosynthesis"),
		[]byte("   "),
		[]byte("leaf"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != 1 {
		t.Fatalf("expected a single request, got %d", len(seen))
	}
	if len(seen[0].Input) != 2 {
		t.Fatalf("blank inputs must not be sent, got %v", seen[0].Input)
	}

	if len(out) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(out))
	}
	if out[0][0] != float32(len("photosynthesis")) || out[2][0] != float32(len("leaf")) {
		t.Fatalf("vectors out of order: %v", out)
	}
	for i, vec := range out {
		if len(vec) != 4 {
			t.Fatalf("vector %d has %d dims, want 4", i, len(vec))
		}
	}
	if out[1][0] != 0 {
		t.Fatalf("blank input should map to zero vector, got %v", out[1])
	}

	if m := c.GetMetrics(); m.TotalTokens != 5 || m.Requests != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestGenerateEmbeddings_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewEmbeddingClient(NewEmbeddingClientParams{Model: "m", BaseURL: srv.URL, APIKey: "k"})
	if _, err := c.GenerateEmbedding(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error, got nil")
	}
}
