package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/balizero/zantara-agentic/domain/agent"
)

// openAICompatProvider speaks the OpenAI chat-completions wire format.
// Both OpenRouter and DeepSeek expose it.
type openAICompatProvider struct {
	name   string
	config ProviderConfig
	client *http.Client
}

// NewOpenRouterProvider creates a provider routed through OpenRouter.
func NewOpenRouterProvider(config ProviderConfig) Provider {
	if config.BaseURL == "" {
		config.BaseURL = "https://openrouter.ai/api"
	}
	return newOpenAICompat("openrouter", config)
}

// NewDeepSeekProvider creates a provider for the DeepSeek API.
func NewDeepSeekProvider(config ProviderConfig) Provider {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.deepseek.com"
	}
	return newOpenAICompat("deepseek", config)
}

func newOpenAICompat(name string, config ProviderConfig) Provider {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 120
	}
	return &openAICompatProvider{
		name:   name,
		config: config,
		client: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// Name returns the provider name.
func (p *openAICompatProvider) Name() string {
	return p.name
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// Complete implements the Provider interface.
func (p *openAICompatProvider) Complete(ctx context.Context, req CompletionRequest) (*Response, error) {
	messages := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}
	messages = append(messages, req.Messages...)

	body, err := json.Marshal(chatCompletionRequest{
		Model:       p.config.model(req.Tier),
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w: %w", p.name, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", p.name, ErrMalformedResponse)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(p.name, resp.StatusCode, string(respBody))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", p.name, err, ErrMalformedResponse)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%s: %s: %w", p.name, parsed.Error.Message, ErrUnavailable)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%s: no choices in response: %w", p.name, ErrMalformedResponse)
	}

	choice := parsed.Choices[0]
	out := &Response{
		Text:  choice.Message.Content,
		Model: parsed.Model,
		Usage: agent.TokenUsage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
		},
		Raw: respBody,
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, NativeToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}
