package consult

import (
	"math"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// TokensPerRound is the assumed output budget per agent per round.
const TokensPerRound = 2000

// Estimate is the pre-flight cost projection for a consultation.
type Estimate struct {
	QuestionTokens   int     `json:"question_tokens"`
	InputTokensTotal int     `json:"input_tokens_total"`
	OutputTokens     int     `json:"output_tokens_total"`
	AgentCount       int     `json:"agent_count"`
	Rounds           int     `json:"rounds"`
	USD              float64 `json:"usd"`
}

// EstimateCost projects the cost of running the panel for the given
// number of rounds. The projection is input-bounded: the question is
// assumed sent once per agent, and each agent is assumed to emit
// TokensPerRound output tokens per round.
func EstimateCost(question string, panel core.Panel, rounds int) Estimate {
	if rounds < 0 {
		rounds = 0
	}

	questionTokens := int(math.Ceil(float64(len(question)) / 4))
	outputPerAgent := rounds * TokensPerRound

	var usd float64
	for _, agent := range panel {
		price := PriceFor(agent.Model)
		usd += float64(questionTokens)/1000*price.Input +
			float64(outputPerAgent)/1000*price.Output
	}

	return Estimate{
		QuestionTokens:   questionTokens,
		InputTokensTotal: questionTokens * len(panel),
		OutputTokens:     outputPerAgent * len(panel),
		AgentCount:       len(panel),
		Rounds:           rounds,
		USD:              usd,
	}
}

// EarlyTerminationSavings returns the USD saved by skipping rounds,
// assuming each skipped round would have cost TokensPerRound per agent at
// the sum of input and output price.
func EarlyTerminationSavings(panel core.Panel, roundsSkipped int) float64 {
	if roundsSkipped <= 0 {
		return 0
	}
	var usd float64
	for _, agent := range panel {
		price := PriceFor(agent.Model)
		usd += float64(roundsSkipped) * TokensPerRound / 1000 * (price.Input + price.Output)
	}
	return usd
}

// ActualCost prices a token count against a specific model.
func ActualCost(model string, tokens core.TokenCount) float64 {
	price := PriceFor(model)
	return float64(tokens.Input)/1000*price.Input + float64(tokens.Output)/1000*price.Output
}
