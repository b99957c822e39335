// ABOUTME: OpenAI client for embeddings and grounded answer generation
// ABOUTME: Retries transient failures with exponential backoff
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/docdesk/docdesk/internal/models"
	"github.com/docdesk/docdesk/internal/util"
)

var (
	// ErrGeneration signals that the answer service failed.
	ErrGeneration = errors.New("generation failed")

	// ErrGenerationTimeout signals that the answer service exceeded its
	// deadline.
	ErrGenerationTimeout = errors.New("generation timed out")
)

const (
	// DefaultChatModel is the default model for answer generation
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)

	embeddingTimeout = 30 * time.Second
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey          string
	ChatModel       string
	EmbeddingModel  string
	MaxTokens       int
	Temperature     float32
	MaxRetries      int
	RetryDelay      time.Duration
	MaxHistoryTurns int
}

// Client wraps the OpenAI API with retry logic. It provides both the
// embedding capability consumed by the semantic index and the external
// generation service consumed by the RAG engine.
type Client struct {
	client          *openai.Client
	chatModel       string
	embeddingModel  string
	maxTokens       int
	temperature     float32
	maxRetries      int
	retryDelay      time.Duration
	maxHistoryTurns int
}

// NewClient creates a new OpenAI client with the given configuration
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	c := &Client{
		client:          openai.NewClient(cfg.APIKey),
		chatModel:       cfg.ChatModel,
		embeddingModel:  cfg.EmbeddingModel,
		maxTokens:       cfg.MaxTokens,
		temperature:     cfg.Temperature,
		maxRetries:      cfg.MaxRetries,
		retryDelay:      cfg.RetryDelay,
		maxHistoryTurns: cfg.MaxHistoryTurns,
	}
	if c.chatModel == "" {
		c.chatModel = DefaultChatModel
	}
	if c.embeddingModel == "" {
		c.embeddingModel = DefaultEmbeddingModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 4096
	}
	if c.maxHistoryTurns <= 0 {
		c.maxHistoryTurns = 10
	}
	return c, nil
}

// Embed generates an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(util.CalculateBackoff(c.retryDelay, attempt))
		}

		reqCtx, cancel := context.WithTimeout(ctx, embeddingTimeout)

		resp, err := c.client.CreateEmbeddings(reqCtx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.embeddingModel),
		})

		if err != nil {
			cancel()
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}

		if len(resp.Data) == 0 {
			cancel()
			lastErr = fmt.Errorf("attempt %d: no embeddings returned", attempt+1)
			continue
		}

		embedding32 := resp.Data[0].Embedding
		embedding64 := make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding64[i] = float64(v)
		}

		cancel()
		return embedding64, nil
	}

	return nil, fmt.Errorf("failed to generate embedding after %d attempts: %w", c.maxRetries+1, lastErr)
}

// GenerationResult is the generation service's answer plus usage
// accounting.
type GenerationResult struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// Generate produces a grounded answer for the question given retrieved
// context and prior conversation history. History is capped to the most
// recent turns before sending. The caller bounds the wait through ctx;
// deadline expiry surfaces as ErrGenerationTimeout.
func (c *Client) Generate(ctx context.Context, question, contextText string, history []models.ChatMessage) (*GenerationResult, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: buildSystemPrompt(contextText),
		},
	}

	// Cap history to the last N turns (user+assistant pairs)
	if max := c.maxHistoryTurns * 2; len(history) > max {
		history = history[len(history)-max:]
	}
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no completion choices returned", ErrGeneration)
	}

	choice := resp.Choices[0]
	return &GenerationResult{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		StopReason:   string(choice.FinishReason),
	}, nil
}

const basePrompt = `You are an AI assistant for a business, helping customers with their questions and concerns.

Your responsibilities:
- Provide accurate, helpful answers based on the company's knowledge base
- Be professional, friendly, and concise
- If you don't know something, admit it and suggest contacting human support
- Always prioritize customer satisfaction

Guidelines:
- Use the provided context to answer questions accurately
- Don't make up information not in the context
- Be conversational but professional
- Keep responses focused and relevant
`

// buildSystemPrompt appends the retrieved context to the base prompt.
// With no context the assistant answers without grounding rather than
// refusing.
func buildSystemPrompt(contextText string) string {
	if contextText == "" {
		return basePrompt
	}
	return basePrompt + fmt.Sprintf(`
RELEVANT INFORMATION FROM KNOWLEDGE BASE:
%s

Use the above information to answer the customer's question. If the information doesn't fully answer their question, let them know what you can help with based on available information.
`, contextText)
}
