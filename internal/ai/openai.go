package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIModel is the chat completion model used for all requests.
const OpenAIModel = "gpt-4o-mini"

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIBackend calls the OpenAI chat completions API.
type OpenAIBackend struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// NewOpenAIBackend creates an OpenAI backend for one API key.
func NewOpenAIBackend(apiKey string) *OpenAIBackend {
	return &OpenAIBackend{
		apiKey:  apiKey,
		baseURL: openAIBaseURL,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (b *OpenAIBackend) Name() string { return "openai" }

func (b *OpenAIBackend) Model() string { return OpenAIModel }

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the prompt as a single user message and returns the first
// choice's content with reported token usage.
func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (*Completion, error) {
	reqBody := openAIRequest{
		Model:    OpenAIModel,
		Messages: []openAIMessage{{Role: "user", Content: prompt}},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	completion := &Completion{Text: parsed.Choices[0].Message.Content}
	if parsed.Usage != nil {
		completion.InputTokens = parsed.Usage.PromptTokens
		completion.OutputTokens = parsed.Usage.CompletionTokens
	}
	return completion, nil
}
