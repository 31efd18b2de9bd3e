package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// groqBaseURL is Groq's OpenAI-compatible endpoint.
const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIClient routes worker names across two OpenAI-compatible
// endpoints: "gpt" workers go to OpenAI, llama/mixtral/gemma workers to
// Groq. Unknown names return a *ConfigurationError.
type OpenAIClient struct {
	openai *openai.Client
	groq   *openai.Client
	log    *slog.Logger
}

// NewOpenAIClient builds a client from the two API keys. Either key may
// be empty; calls routed to the missing endpoint fail at call time.
func NewOpenAIClient(openaiKey, groqKey string, log *slog.Logger) *OpenAIClient {
	if log == nil {
		log = slog.Default()
	}

	groqCfg := openai.DefaultConfig(groqKey)
	groqCfg.BaseURL = groqBaseURL

	return &OpenAIClient{
		openai: openai.NewClient(openaiKey),
		groq:   openai.NewClientWithConfig(groqCfg),
		log:    log,
	}
}

// Call implements Client.
func (c *OpenAIClient) Call(ctx context.Context, worker, instruction string, opts ...CallOption) (Response, error) {
	cl, err := c.route(worker)
	if err != nil {
		return Response{}, err
	}

	req := buildRequest(worker, instruction, applyOptions(opts))

	c.log.Debug("calling worker", "worker", worker, "instruction_length", len(instruction))
	start := time.Now()

	resp, err := cl.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		return Response{}, fmt.Errorf("worker %s: %w", worker, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("worker %s: empty response", worker)
	}

	c.log.Debug("worker responded", "worker", worker, "elapsed", elapsed, "tokens", resp.Usage.TotalTokens)

	return Response{
		Text:    resp.Choices[0].Message.Content,
		Tokens:  resp.Usage.TotalTokens,
		Elapsed: elapsed,
	}, nil
}

// buildRequest assembles the chat completion request for one call. An
// explicit zero temperature is mapped to the smallest positive float32:
// the request field carries omitempty, so a literal 0 would vanish from
// the wire and the server would apply its own default instead.
func buildRequest(worker, instruction string, o callOptions) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if o.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: o.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: instruction,
	})

	temperature := o.temperature
	if o.hasTemp && temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return openai.ChatCompletionRequest{
		Model:       worker,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   o.maxTokens,
	}
}

// route picks the endpoint for a worker name.
func (c *OpenAIClient) route(worker string) (*openai.Client, error) {
	name := strings.ToLower(worker)
	switch {
	case strings.Contains(name, "gpt"):
		return c.openai, nil
	case strings.Contains(name, "llama"), strings.Contains(name, "mixtral"), strings.Contains(name, "gemma"):
		return c.groq, nil
	}
	return nil, &ConfigurationError{Worker: worker}
}
