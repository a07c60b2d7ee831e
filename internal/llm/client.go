// Package llm talks to OpenAI-compatible chat completion providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quote-desk/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotConfigured is returned when no provider has a credential.
var ErrNotConfigured = errors.New("no LLM provider configured: set DEEPSEEK_API_KEY or ZHIPU_API_KEY")

const (
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	DeepSeekModel   = "deepseek-chat"
	ZhipuBaseURL    = "https://open.bigmodel.cn/api/paas/v4/"
	ZhipuModel      = "glm-4-flash"
)

// LLMClient abstracts the chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

type ProviderConfig struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
}

type Provider struct {
	Name  string
	Model string
	llm   LLMClient
}

func NewProvider(name, model string, llm LLMClient) *Provider {
	return &Provider{Name: name, Model: model, llm: llm}
}

var newOpenAIClient = func(apiKey, baseURL string) LLMClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiClient{client: openai.NewClient(opts...)}
}

// Client holds the configured providers in preference order.
type Client struct {
	tracer    trace.Tracer
	providers []*Provider
}

// NewClient keeps only the configs that carry an API key, preserving their order.
func NewClient(tracer trace.Tracer, configs ...ProviderConfig) *Client {
	providers := make([]*Provider, 0, len(configs))
	for _, cfg := range configs {
		if strings.TrimSpace(cfg.APIKey) == "" {
			continue
		}
		providers = append(providers, NewProvider(cfg.Name, cfg.Model, newOpenAIClient(cfg.APIKey, cfg.BaseURL)))
	}
	return &Client{tracer: tracer, providers: providers}
}

func NewClientWithProviders(tracer trace.Tracer, providers ...*Provider) *Client {
	return &Client{tracer: tracer, providers: providers}
}

func (c *Client) Configured() bool {
	return c != nil && len(c.providers) > 0
}

// Pick returns the preferred provider.
func (c *Client) Pick() (*Provider, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	return c.providers[0], nil
}

// Complete sends a single system + user exchange.
func (c *Client) Complete(ctx context.Context, system, user string) (domain.ChatReply, error) {
	messages := make([]domain.ChatMessage, 0, 2)
	if system != "" {
		messages = append(messages, domain.ChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, domain.ChatMessage{Role: "user", Content: user})
	return c.Chat(ctx, messages)
}

func (c *Client) Chat(ctx context.Context, messages []domain.ChatMessage) (domain.ChatReply, error) {
	p, err := c.Pick()
	if err != nil {
		return domain.ChatReply{}, err
	}

	ctx, span := c.tracer.Start(ctx, "llm.chat")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", p.Name),
		attribute.String("llm.model", p.Model),
		attribute.Int("llm.message_count", len(messages)),
	)

	completion, err := p.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model:    p.Model,
		Messages: toParams(messages),
	})
	if err != nil {
		span.RecordError(err)
		return domain.ChatReply{}, fmt.Errorf("%s chat completion: %w", p.Name, err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return domain.ChatReply{}, fmt.Errorf("%s chat completion: no choices in response", p.Name)
	}

	reply := completion.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	model := completion.Model
	if model == "" {
		model = p.Model
	}
	return domain.ChatReply{Reply: reply, Model: model, Provider: p.Name}, nil
}

func toParams(messages []domain.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch strings.ToLower(msg.Role) {
		case "system":
			out = append(out, openai.SystemMessage(msg.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
