package domain

import "time"

// Reaction is an emoji reaction suggestion attached to a response.
type Reaction struct {
	Emoji      string  `json:"emoji"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// ResponseMetadata carries model accounting for a response.
type ResponseMetadata struct {
	Model     string    `json:"model"`
	Tokens    int       `json:"tokens"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentResponse is the result of an agent processing a request.
type AgentResponse struct {
	AgentID         string           `json:"agent_id"`
	Content         string           `json:"content"`
	Reactions       []Reaction       `json:"reactions,omitempty"`
	SuggestedAgents []string         `json:"suggested_agents,omitempty"`
	Confidence      float64          `json:"confidence"`
	Reasoning       string           `json:"reasoning,omitempty"`
	Typing          time.Duration    `json:"typing,omitempty"`
	Metadata        ResponseMetadata `json:"metadata"`
}

// SubTask is a per-agent slice of a decomposed request.
type SubTask struct {
	AgentID string `json:"agent"`
	Task    string `json:"task"`
}

// TaskAnalysis is the orchestrator's transient decomposition of a request:
// which agents to involve, why, and optionally what each should do.
type TaskAnalysis struct {
	AgentIDs  []string  `json:"agents"`
	Reasoning string    `json:"reasoning"`
	Tasks     []SubTask `json:"tasks,omitempty"`
}
