package openai

import (
	"time"

	"github.com/OFFIS-RIT/studymap/pkg/ai"
	"github.com/OFFIS-RIT/studymap/pkg/logger"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/semaphore"
)

const (
	defaultDimensions     = 1536
	defaultTimeoutMin     = 2
	defaultMaxConcurrency = 4
	tokenEncoding         = "cl100k_base"
)

// EmbeddingClient embeds phrases through any OpenAI-compatible embeddings
// endpoint. It is safe for concurrent use.
//
// An EmbeddingClient should be created using NewEmbeddingClient.
type EmbeddingClient struct {
	model          string
	dimensions     int
	maxInputTokens int
	timeout        time.Duration

	reqLock *semaphore.Weighted
	metrics ai.MetricsRecorder
	encoder *tiktoken.Tiktoken

	Client *openai.Client
}

// NewEmbeddingClientParams configures NewEmbeddingClient.
//
// Dimensions fixes the length of returned vectors (truncated or zero padded).
// MaxInputTokens clips overly long phrases before they are sent; zero
// disables clipping.
type NewEmbeddingClientParams struct {
	Model   string
	BaseURL string
	APIKey  string

	Dimensions            int
	MaxInputTokens        int
	MaxConcurrentRequests int64
	MaxRetries            int
	TimeoutMin            int
}

// NewEmbeddingClient creates an EmbeddingClient.
//
// Example:
//
//	client := openai.NewEmbeddingClient(openai.NewEmbeddingClientParams{
//		Model:   "text-embedding-3-small",
//		BaseURL: "https://api.openai.com/v1",
//		APIKey:  os.Getenv("OPENAI_API_KEY"),
//	})
func NewEmbeddingClient(params NewEmbeddingClientParams) *EmbeddingClient {
	if params.Dimensions <= 0 {
		params.Dimensions = defaultDimensions
	}
	if params.TimeoutMin <= 0 {
		params.TimeoutMin = defaultTimeoutMin
	}
	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = defaultMaxConcurrency
	}

	options := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
	}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}
	if params.MaxRetries > 0 {
		options = append(options, option.WithMaxRetries(params.MaxRetries))
	}
	client := openai.NewClient(options...)

	var encoder *tiktoken.Tiktoken
	if params.MaxInputTokens > 0 {
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err != nil {
			logger.Warn("[OpenAI] Token encoder unavailable, inputs will not be clipped", "err", err)
		} else {
			encoder = enc
		}
	}

	return &EmbeddingClient{
		model:          params.Model,
		dimensions:     params.Dimensions,
		maxInputTokens: params.MaxInputTokens,
		timeout:        time.Duration(params.TimeoutMin) * time.Minute,

		reqLock: semaphore.NewWeighted(params.MaxConcurrentRequests),
		encoder: encoder,

		Client: &client,
	}
}

// Model returns the embedding model name.
func (c *EmbeddingClient) Model() string {
	return c.model
}

// GetMetrics returns the token usage accumulated since the client was created.
func (c *EmbeddingClient) GetMetrics() ai.ModelMetrics {
	return c.metrics.Snapshot()
}
