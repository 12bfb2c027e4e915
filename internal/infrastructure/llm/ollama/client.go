package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/vietlawhub/legal-gateway/internal/infrastructure/resilience"
)

// Client talks to a local Ollama server for both generation and embeddings.
type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
	genLimiter *rate.Limiter

	ready atomic.Bool
}

type Options struct {
	Timeout            time.Duration
	GenerateRPS        float64
	GenerateBurst      int
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, genModel, embedModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	rps := options.GenerateRPS
	if rps <= 0 {
		rps = 2
	}
	burst := options.GenerateBurst
	if burst <= 0 {
		burst = 4
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
		genLimiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// StartReadinessProbe polls the server until the configured generation model
// is available, then flips the readiness flag. Generation consumers must
// short-circuit while Ready is false.
func (c *Client) StartReadinessProbe(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if c.probeModels(ctx) {
				c.ready.Store(true)
				slog.Info("ollama_ready", "gen_model", c.genModel)
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (c *Client) probeModels(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var response struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.getJSON(probeCtx, "/api/tags", &response); err != nil {
		slog.Debug("ollama_probe_failed", "error", err)
		return false
	}
	for _, model := range response.Models {
		if model.Name == c.genModel || strings.HasPrefix(model.Name, c.genModel+":") {
			return true
		}
	}
	return false
}

// Embedder implements ports.Embedder on the shared client.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "embed", "/api/embed", request, &response); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Generator implements ports.Generator on the shared client.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Ready() bool {
	return g.client.ready.Load()
}

func (g *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := g.client.genLimiter.Wait(ctx); err != nil {
		return "", err
	}

	request := map[string]any{
		"model": g.client.genModel,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"stream": false,
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := g.client.call(ctx, "generate", "/api/chat", request, &response); err != nil {
		return "", err
	}
	return strings.TrimSpace(stripThinking(response.Message.Content)), nil
}

func (c *Client) call(ctx context.Context, operation, path string, payload, out any) error {
	fn := func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, payload, out, operation)
	}
	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, fn(ctx))
	}
	err := c.executor.Execute(ctx, "ollama."+operation, fn, classifyOllamaError)
	return wrapTemporaryIfNeeded(operation, err)
}
