package ollama

import (
	"net/http"
	"net/url"
	"time"

	"github.com/OFFIS-RIT/studymap/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

const (
	defaultDimensions     = 768
	defaultTimeoutMin     = 2
	defaultMaxConcurrency = 2
	defaultMaxRetries     = 3
)

// EmbeddingClient embeds phrases with a model served by Ollama.
// It is safe for concurrent use.
type EmbeddingClient struct {
	model      string
	dimensions int
	timeout    time.Duration
	maxRetries int

	reqLock *semaphore.Weighted
	metrics ai.MetricsRecorder

	Client *api.Client
}

// NewEmbeddingClientParams contains configuration options for NewEmbeddingClient.
type NewEmbeddingClientParams struct {
	Model   string
	BaseURL string
	ApiKey  string

	Dimensions            int
	MaxConcurrentRequests int64
	MaxRetries            int
	TimeoutMin            int
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewEmbeddingClient connects to the Ollama server at BaseURL (or the
// client default when empty). A non-empty ApiKey is sent as a bearer token
// for deployments behind an authenticating proxy.
func NewEmbeddingClient(params NewEmbeddingClientParams) (*EmbeddingClient, error) {
	var u *url.URL
	if params.BaseURL != "" {
		parsed, err := url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
		u = parsed
	}
	if params.Dimensions <= 0 {
		params.Dimensions = defaultDimensions
	}
	if params.TimeoutMin <= 0 {
		params.TimeoutMin = defaultTimeoutMin
	}
	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = defaultMaxConcurrency
	}
	if params.MaxRetries <= 0 {
		params.MaxRetries = defaultMaxRetries
	}

	httpClient := http.DefaultClient
	if params.ApiKey != "" {
		httpClient = &http.Client{
			Transport: &headerTransport{
				headers: map[string]string{
					"Authorization": "Bearer " + params.ApiKey,
				},
				rt: http.DefaultTransport,
			},
		}
	}

	var cli *api.Client
	if u != nil {
		cli = api.NewClient(u, httpClient)
	} else {
		envCli, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
		cli = envCli
	}

	return &EmbeddingClient{
		model:      params.Model,
		dimensions: params.Dimensions,
		timeout:    time.Duration(params.TimeoutMin) * time.Minute,
		maxRetries: params.MaxRetries,

		reqLock: semaphore.NewWeighted(params.MaxConcurrentRequests),

		Client: cli,
	}, nil
}

// Model returns the embedding model name.
func (c *EmbeddingClient) Model() string {
	return c.model
}

// GetMetrics returns the token usage and timing metrics accumulated since
// the client was created.
func (c *EmbeddingClient) GetMetrics() ai.ModelMetrics {
	return c.metrics.Snapshot()
}
