// Package llm provides the language model client used for answer generation
// and translation.
//
// The client wraps Genkit with the Google AI plugin. It is constructed once
// per process and passed by reference into the pipeline; components that
// consume it define their own narrow interfaces so tests can substitute
// deterministic stubs.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"google.golang.org/genai"

	"github.com/lunbi/lunbi/internal/log"
)

// ErrGeneration indicates the model call failed. Callers recover it into a
// fixed user-facing message rather than surfacing the raw error.
var ErrGeneration = errors.New("generation failed")

// StreamCallback receives one content delta at a time, in arrival order.
// Returning an error aborts the stream. An alias of the bare function type,
// identical to the callback types consuming packages declare.
type StreamCallback = func(ctx context.Context, chunk string) error

// Config holds the model client configuration.
type Config struct {
	ModelName     string
	EmbedderModel string
	Temperature   float32
}

// Client is the process-wide language model client.
type Client struct {
	g         *genkit.Genkit
	modelName string
	genConfig *genai.GenerateContentConfig
	embedder  ai.Embedder
	logger    log.Logger
}

// New initializes Genkit with the Google AI plugin and returns a Client.
// Requires GEMINI_API_KEY in the environment.
func New(ctx context.Context, cfg Config, logger log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with googleai plugin")
	}

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	logger.Info("initialized language model client",
		"model", cfg.ModelName, "embedder", cfg.EmbedderModel)

	return &Client{
		g:         g,
		modelName: cfg.ModelName,
		genConfig: &genai.GenerateContentConfig{
			Temperature: genai.Ptr(cfg.Temperature),
		},
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Generate produces a single-shot completion for the given prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName("googleai/"+c.modelName),
		ai.WithConfig(c.genConfig),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return resp.Text(), nil
}

// GenerateStream produces a completion while forwarding each content delta
// to cb as it arrives. No buffering beyond one chunk; ordering is preserved.
// The returned string is the full response text.
func (c *Client) GenerateStream(ctx context.Context, prompt string, cb StreamCallback) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName("googleai/"+c.modelName),
		ai.WithConfig(c.genConfig),
		ai.WithPrompt(prompt),
		ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			if cb == nil {
				return nil
			}
			text := chunk.Text()
			if text == "" {
				return nil
			}
			return cb(ctx, text)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return resp.Text(), nil
}

// Embedder returns the query/document embedder registered by the plugin.
func (c *Client) Embedder() ai.Embedder {
	return c.embedder
}
