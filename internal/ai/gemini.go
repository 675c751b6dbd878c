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

// GeminiModel is the Google Generative Language model used for all requests.
const GeminiModel = "gemini-1.5-flash-latest"

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiBackend calls the Google Generative Language API with a single API key.
type GeminiBackend struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// NewGeminiBackend creates a Gemini backend for one API key.
func NewGeminiBackend(apiKey string) *GeminiBackend {
	return &GeminiBackend{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (b *GeminiBackend) Name() string { return "google" }

func (b *GeminiBackend) Model() string { return GeminiModel }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the prompt to the generateContent endpoint and returns the
// first candidate's text with reported token usage.
func (b *GeminiBackend) Generate(ctx context.Context, prompt string) (*Completion, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", b.baseURL, GeminiModel, b.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("gemini API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	completion := &Completion{Text: parsed.Candidates[0].Content.Parts[0].Text}
	if parsed.UsageMetadata != nil {
		completion.InputTokens = parsed.UsageMetadata.PromptTokenCount
		completion.OutputTokens = parsed.UsageMetadata.CandidatesTokenCount
	}
	return completion, nil
}
