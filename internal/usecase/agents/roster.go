package agents

import "agentteam/internal/domain"

// NewRoster builds the default specialist lineup in its canonical order.
// The order is load-bearing: it fixes aggregation order and volunteer
// tie-breaking downstream.
func NewRoster(providerName string, deps Deps) []domain.Specialist {
	return []domain.Specialist{
		NewResearchAgent(providerName, deps),
		NewCodeAgent(providerName, deps),
		NewMathAgent(providerName, deps),
		NewCreativeAgent(providerName, deps),
		NewVisualAgent(providerName, deps),
	}
}
