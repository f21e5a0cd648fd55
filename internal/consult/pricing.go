// Package consult implements the debate pipeline: cost admission,
// strategy-driven prompt generation, hedged agent fan-out, artifact
// extraction, and partial-result persistence.
package consult

import "strings"

// ModelPricing is USD per 1000 tokens.
type ModelPricing struct {
	Input  float64
	Output float64
}

// Pricing entries are matched by case-insensitive substring against the
// model ID, in order. Unknown models fall back to defaultPricing.
var pricingTable = []struct {
	match string
	price ModelPricing
}{
	{"claude", ModelPricing{Input: 0.003, Output: 0.015}},
	{"gpt-4o", ModelPricing{Input: 0.0025, Output: 0.010}},
	{"gemini", ModelPricing{Input: 0.00125, Output: 0.005}},
}

// defaultPricing applies when no table entry matches the model ID.
var defaultPricing = ModelPricing{Input: 0.001, Output: 0.003}

// PriceFor returns the pricing for a model ID.
func PriceFor(model string) ModelPricing {
	lower := strings.ToLower(model)
	for _, entry := range pricingTable {
		if strings.Contains(lower, entry.match) {
			return entry.price
		}
	}
	return defaultPricing
}
