// Package ai contains the text-generation backend clients and the static
// pricing table used to convert reported token counts into dollar cost.
package ai

import "context"

// Completion is a successful generation result. Token counts are zero when a
// backend does not report usage.
type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// TextBackend is a single AI provider candidate in the failover list.
type TextBackend interface {
	Generate(ctx context.Context, prompt string) (*Completion, error)
	Name() string
	Model() string
}

// Credentials holds the configured provider API keys. GoogleAPIKeys is
// already in failover order; empty entries are skipped.
type Credentials struct {
	GoogleAPIKeys []string
	OpenAIAPIKey  string
}

// Backends builds the static, ordered candidate list from configured
// credentials. The order encodes preference, not load distribution: all
// Google keys are tried first, then OpenAI. Entries with no credential are
// omitted entirely rather than recorded as failures.
func Backends(creds Credentials) []TextBackend {
	var backends []TextBackend
	for _, key := range creds.GoogleAPIKeys {
		if key == "" {
			continue
		}
		backends = append(backends, NewGeminiBackend(key))
	}
	if creds.OpenAIAPIKey != "" {
		backends = append(backends, NewOpenAIBackend(creds.OpenAIAPIKey))
	}
	return backends
}
