package services

// EstimateTokens returns an approximate token count using the ~4 chars/token
// heuristic. Cheap and provider-agnostic; only used for budgeting, never
// billing.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateEnvelopeTokens estimates the total input tokens of a composed
// envelope. Accounts for a small per-message role overhead.
func EstimateEnvelopeTokens(env Envelope) int {
	total := 0
	if env.System != "" {
		total += 4 + EstimateTokens(env.System)
	}
	total += 4 + EstimateTokens(env.User)
	return total
}
