package ai

// Rate is the per-token price for a backend model.
type Rate struct {
	Input  float64
	Output float64
}

// PricingTable maps a backend model name to its token rates.
type PricingTable map[string]Rate

// DefaultPricing returns the static per-model pricing table.
func DefaultPricing() PricingTable {
	return PricingTable{
		GeminiModel: {
			Input:  0.35 / 1000000, // $0.35 per 1M input tokens
			Output: 0.70 / 1000000, // $0.70 per 1M output tokens
		},
		OpenAIModel: {
			Input:  0.15 / 1000000, // $0.15 per 1M input tokens
			Output: 0.60 / 1000000, // $0.60 per 1M output tokens
		},
	}
}

// Cost computes the dollar cost of a call from reported token counts.
// Unknown models cost nothing, matching the table-miss behavior of the
// usage accounting (the call still succeeds, it just isn't billed).
func (p PricingTable) Cost(model string, inputTokens, outputTokens int64) float64 {
	rate, ok := p[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)*rate.Input + float64(outputTokens)*rate.Output
}
