package agents

import (
	"encoding/json"
	"strings"

	"agentteam/internal/domain"
)

// parseTaskAnalysis extracts the first balanced JSON object from raw model
// output and unmarshals it. Models wrap JSON in prose and code fences; the
// scanner tolerates both. Agent IDs not present in known are dropped.
func parseTaskAnalysis(raw string, known map[string]bool) (*domain.TaskAnalysis, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return nil, domain.NewDomainError("orchestrator.decompose", domain.ErrDecomposeParse, "no JSON object found")
	}

	var analysis domain.TaskAnalysis
	if err := json.Unmarshal([]byte(obj), &analysis); err != nil {
		return nil, domain.NewDomainError("orchestrator.decompose", domain.ErrDecomposeParse, err.Error())
	}

	filtered := analysis.AgentIDs[:0]
	for _, id := range analysis.AgentIDs {
		if known[id] {
			filtered = append(filtered, id)
		}
	}
	analysis.AgentIDs = filtered

	tasks := analysis.Tasks[:0]
	for _, t := range analysis.Tasks {
		if known[t.AgentID] {
			tasks = append(tasks, t)
		}
	}
	analysis.Tasks = tasks

	return &analysis, nil
}

// extractJSONObject returns the first brace-balanced substring of raw.
// Braces inside JSON strings do not count toward the balance.
func extractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// routeTriggers maps each specialist to the words that route to it when the
// model decomposition is unavailable. The sets are disjoint so one word
// never pulls in two agents.
var routeTriggers = []struct {
	agentID  string
	triggers []string
}{
	{"code", []string{"code", "program", "debug", "compile", "syntax"}},
	{"math", []string{"math", "calculate", "equation", "integral", "statistics"}},
	{"research", []string{"search", "find", "research", "verify", "fact"}},
	{"creative", []string{"story", "poem", "creative", "imagine", "invent"}},
	{"visual", []string{"image", "picture", "draw", "illustration", "photo"}},
}

// keywordRoute is the deterministic fallback decomposition: match trigger
// words per agent, default to research when nothing matches.
func keywordRoute(text string, known map[string]bool) *domain.TaskAnalysis {
	lower := strings.ToLower(text)
	var ids []string
	for _, rt := range routeTriggers {
		if !known[rt.agentID] {
			continue
		}
		for _, trigger := range rt.triggers {
			if strings.Contains(lower, trigger) {
				ids = append(ids, rt.agentID)
				break
			}
		}
	}
	if len(ids) == 0 && known["research"] {
		ids = []string{"research"}
	}
	return &domain.TaskAnalysis{
		AgentIDs:  ids,
		Reasoning: "keyword fallback routing",
	}
}
